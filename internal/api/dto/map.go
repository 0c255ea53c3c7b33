package dto

import (
	"pharmacy-route-service/internal/adapters/mapsurface"
	"pharmacy-route-service/internal/render"
)

type MapResponse struct {
	Map    mapsurface.Snapshot `json:"map"`
	Report render.Report       `json:"report"`
}
