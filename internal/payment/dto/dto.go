package dto

import "github.com/fekuna/omnipos-order-service/internal/model"

type InvoiceFilters struct {
	BusinessID string
	Status     model.InvoiceStatus
	CustomerID int64
	Page       int
	PageSize   int
}
