// internal/domain/tracking/repository.go
package tracking

import "context"

// Repository defines persistence for tracking records and response records.
type Repository interface {
	// Tracking records, keyed by tracking ID
	CreateRecord(ctx context.Context, r *Record) error
	GetRecord(ctx context.Context, trackingID string) (*Record, error)
	UpdateRecord(ctx context.Context, r *Record) error
	ListRecordsBySeller(ctx context.Context, sellerID string) ([]*Record, error)

	// Response records, keyed by seller ID and email type
	CreateResponse(ctx context.Context, r *Response) error
	// GetLatestResponse returns the most recently sent response record for the seller and tier.
	GetLatestResponse(ctx context.Context, sellerID, emailType string) (*Response, error)
	UpdateResponse(ctx context.Context, r *Response) error
	ListResponsesBySeller(ctx context.Context, sellerID string) ([]*Response, error)
}
