package model

import "encoding/json"

// RedactionRequest is the blur request body: zones grouped per page.
type RedactionRequest struct {
	BlurData []PageZones `json:"blur_data"`
}

// PageZones names a page by 1-based index or by its page identifier.
type PageZones struct {
	Page  json.RawMessage `json:"page" swaggertype:"string"`
	Zones []ZoneCoords    `json:"zones"`
}

// ZoneCoords is a zone as drawn by a client: (x1,y1) top-left, (x2,y2) bottom-right.
type ZoneCoords struct {
	X1 json.Number `json:"x1" swaggertype:"number"`
	Y1 json.Number `json:"y1" swaggertype:"number"`
	X2 json.Number `json:"x2" swaggertype:"number"`
	Y2 json.Number `json:"y2" swaggertype:"number"`
}
