package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"pdfblur/internal/model"
	"pdfblur/internal/page"
)

// ZonesFromRequest validates a redaction request against job and groups its
// zones by page index. Entries naming the same page are merged in order.
// Coordinates are truncated toward zero.
func ZonesFromRequest(job *model.Job, req *model.RedactionRequest) (map[int][]page.Zone, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: empty body", ErrInvalidRequest)
	}
	zones := make(map[int][]page.Zone, len(req.BlurData))
	for i, entry := range req.BlurData {
		n, err := pageIndex(job, entry.Page)
		if err != nil {
			return nil, fmt.Errorf("%w: blur_data[%d]: %v", ErrInvalidRequest, i, err)
		}
		if n < 1 || n > job.PageCount {
			return nil, &page.InvalidZoneError{Page: n, Reason: fmt.Sprintf("job has %d pages", job.PageCount)}
		}
		for j, c := range entry.Zones {
			z, err := zoneFromCoords(n, c)
			if err != nil {
				return nil, fmt.Errorf("%w: blur_data[%d].zones[%d]: %v", ErrInvalidRequest, i, j, err)
			}
			if err := z.Validate(n, job.PageWidth, job.PageHeight); err != nil {
				return nil, err
			}
			zones[n] = append(zones[n], z)
		}
	}
	return zones, nil
}

// pageIndex accepts a JSON integer or a page identifier string.
func pageIndex(job *model.Job, raw json.RawMessage) (int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, fmt.Errorf("page is required")
	}
	if raw[0] == '"' {
		var name string
		if err := json.Unmarshal(raw, &name); err != nil {
			return 0, fmt.Errorf("page: %v", err)
		}
		if n, err := strconv.Atoi(name); err == nil {
			return n, nil
		}
		n, ok := job.ParsePageName(name)
		if !ok {
			return 0, fmt.Errorf("page %q is not a page of job %s", name, job.ID)
		}
		return n, nil
	}
	var num json.Number
	if err := json.Unmarshal(raw, &num); err != nil {
		return 0, fmt.Errorf("page must be an index or a page identifier")
	}
	n, err := num.Int64()
	if err != nil {
		return 0, fmt.Errorf("page %s is not an integer", num)
	}
	return int(n), nil
}

func zoneFromCoords(n int, c model.ZoneCoords) (page.Zone, error) {
	var v [4]int
	for i, f := range []struct {
		name string
		num  json.Number
	}{{"x1", c.X1}, {"y1", c.Y1}, {"x2", c.X2}, {"y2", c.Y2}} {
		x, err := coordinate(f.num)
		if err != nil {
			return page.Zone{}, fmt.Errorf("%s: %v", f.name, err)
		}
		v[i] = x
	}
	return page.Zone{Page: n, Left: v[0], Top: v[1], Right: v[2], Bottom: v[3]}, nil
}

func coordinate(num json.Number) (int, error) {
	if num == "" {
		return 0, fmt.Errorf("missing coordinate")
	}
	if i, err := num.Int64(); err == nil {
		if i > math.MaxInt32 || i < math.MinInt32 {
			return 0, fmt.Errorf("coordinate %s out of range", num)
		}
		return int(i), nil
	}
	f, err := num.Float64()
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("coordinate %q is not a number", num.String())
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, fmt.Errorf("coordinate %s out of range", num)
	}
	return int(math.Trunc(f)), nil
}
