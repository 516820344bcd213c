package invoices

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-invoice-client/apiclient"
)

const basePath = "/invoices"

// Service is the typed client for the invoices collection.
type Service struct {
	client *apiclient.Client
	logger zerolog.Logger
}

// ServiceOption modifies a Service during construction.
type ServiceOption func(*Service)

// WithLogger sets the logger used by the service.
func WithLogger(logger zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService returns an invoice service over the given client.
func NewService(client *apiclient.Client, options ...ServiceOption) *Service {
	s := &Service{
		client: client,
		logger: log.Logger,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// List fetches every invoice. The server returns either a bare array or a
// `{data: [...]}` envelope; both are tolerated.
func (s *Service) List(ctx context.Context) ([]Invoice, error) {
	resp, err := s.client.Get(ctx, basePath)
	if err != nil {
		return nil, err
	}
	invoices, err := decodeCollection(resp.Body)
	if err != nil {
		return nil, err
	}
	s.logger.Debug().Int("count", len(invoices)).Msg("fetched invoices")
	return invoices, nil
}

// Search fetches every invoice and applies the query client-side.
func (s *Service) Search(ctx context.Context, query Query) ([]Invoice, error) {
	invoices, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return query.Apply(invoices), nil
}

// Get fetches a single invoice by ID.
func (s *Service) Get(ctx context.Context, id string) (*Invoice, error) {
	resp, err := s.client.Get(ctx, invoicePath(id))
	if err != nil {
		return nil, err
	}
	return decodeOne(resp.Body)
}

// Create stores a new invoice and returns the created record.
func (s *Service) Create(ctx context.Context, invoice Invoice) (*Invoice, error) {
	if err := validate(invoice); err != nil {
		return nil, err
	}
	resp, err := s.client.Post(ctx, basePath, invoice)
	if err != nil {
		return nil, err
	}
	created, err := decodeOne(resp.Body)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("invoice", created.InvoiceNumber).Msg("invoice created")
	return created, nil
}

// Update replaces an existing invoice and returns the updated record.
func (s *Service) Update(ctx context.Context, id string, invoice Invoice) (*Invoice, error) {
	if err := validate(invoice); err != nil {
		return nil, err
	}
	resp, err := s.client.Put(ctx, invoicePath(id), invoice)
	if err != nil {
		return nil, err
	}
	return decodeOne(resp.Body)
}

// Delete removes an invoice.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.client.Delete(ctx, invoicePath(id)); err != nil {
		return err
	}
	s.logger.Info().Str("id", id).Msg("invoice deleted")
	return nil
}

// UploadAttachment sends a file attachment for an invoice as a multipart
// form.
func (s *Service) UploadAttachment(ctx context.Context, id, filename string, content []byte) error {
	form := apiclient.NewForm().
		Set("invoiceId", id).
		AttachFile("file", filename, content)
	if _, err := s.client.PostForm(ctx, invoicePath(id)+"/attachments", form); err != nil {
		return err
	}
	s.logger.Info().Str("id", id).Str("file", filename).Msg("attachment uploaded")
	return nil
}

// DownloadPDF fetches the rendered PDF for an invoice.
func (s *Service) DownloadPDF(ctx context.Context, id string) ([]byte, error) {
	return s.client.DownloadBinary(ctx, invoicePath(id)+"/pdf")
}

func invoicePath(id string) string {
	return basePath + "/" + url.PathEscape(id)
}

func validate(invoice Invoice) error {
	if invoice.InvoiceNumber == "" {
		return fmt.Errorf("invoice number is required")
	}
	if invoice.ClientName == "" {
		return fmt.Errorf("client name is required")
	}
	if invoice.Status != "" && !invoice.Status.Valid() {
		return fmt.Errorf("unknown invoice status %q", invoice.Status)
	}
	return nil
}

func decodeCollection(body []byte) ([]Invoice, error) {
	var list []Invoice
	if err := json.Unmarshal(body, &list); err == nil {
		return list, nil
	}

	var envelope struct {
		Data []Invoice `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode invoice collection: %w", err)
	}
	return envelope.Data, nil
}

func decodeOne(body []byte) (*Invoice, error) {
	// Probe for the envelope first: a bare Invoice decode would silently
	// succeed on an envelope and produce a zero record.
	var envelope struct {
		Data *Invoice `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Data != nil {
		return envelope.Data, nil
	}

	var invoice Invoice
	if err := json.Unmarshal(body, &invoice); err != nil {
		return nil, fmt.Errorf("decode invoice: %w", err)
	}
	return &invoice, nil
}
