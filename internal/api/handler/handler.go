package handler

import "uni-timetable/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Availability *AvailabilityHandler
	Hold         *HoldHandler
	Attribution  *AttributionHandler
	Assignment   *AssignmentHandler
	Export       *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Availability: NewAvailabilityHandler(svc.Scheduling),
		Hold:         NewHoldHandler(svc.Scheduling),
		Attribution:  NewAttributionHandler(svc.Scheduling),
		Assignment:   NewAssignmentHandler(svc.Scheduling),
		Export:       NewExportHandler(svc.Export),
	}
}
