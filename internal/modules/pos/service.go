package pos

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Service is the server side of the transaction store.
type Service interface {
	// ListTransactions returns the matching transactions, most recent first.
	ListTransactions(ctx context.Context, f Filter) ([]Transaction, error)

	// CreateTransaction validates and persists a checkout draft.
	CreateTransaction(ctx context.Context, d Draft) (Transaction, error)

	// VoidTransaction moves a completed transaction to voided.
	VoidTransaction(ctx context.Context, id, reason string) error
}

type service struct {
	repo   Repository
	log    *zap.Logger
	tracer trace.Tracer
}

// NewService creates a new transaction service.
func NewService(repo Repository, log *zap.Logger) Service {
	return &service{repo: repo, log: log, tracer: otel.Tracer("pos")}
}

func (s *service) ListTransactions(ctx context.Context, f Filter) ([]Transaction, error) {
	ctx, span := s.tracer.Start(ctx, "pos.ListTransactions", trace.WithAttributes(
		attribute.String("store_id", f.StoreID),
		attribute.String("branch_id", f.BranchID),
	))
	defer span.End()

	txs, err := s.repo.List(ctx, f)
	if err != nil {
		s.fail(span, "list transactions", err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("count", len(txs)))
	return txs, nil
}

func (s *service) CreateTransaction(ctx context.Context, d Draft) (Transaction, error) {
	ctx, span := s.tracer.Start(ctx, "pos.CreateTransaction", trace.WithAttributes(
		attribute.String("store_id", d.StoreID),
		attribute.String("branch_id", d.BranchID),
		attribute.Int("items", len(d.Items)),
	))
	defer span.End()

	if err := d.Validate(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return Transaction{}, err
	}
	t, err := s.repo.Create(ctx, d)
	if err != nil {
		s.fail(span, "create transaction", err)
		return Transaction{}, err
	}
	span.SetAttributes(attribute.String("transaction_id", t.ID))
	s.log.Info("transaction created",
		zap.String("id", t.ID),
		zap.String("store_id", t.StoreID),
		zap.String("branch_id", t.BranchID),
		zap.String("total", t.Total.StringFixed(2)))
	return t, nil
}

func (s *service) VoidTransaction(ctx context.Context, id, reason string) error {
	ctx, span := s.tracer.Start(ctx, "pos.VoidTransaction", trace.WithAttributes(
		attribute.String("transaction_id", id),
	))
	defer span.End()

	if err := s.repo.Void(ctx, id, reason); err != nil {
		if errors.Is(err, ErrNotFound) {
			span.SetStatus(codes.Error, err.Error())
			return err
		}
		s.fail(span, "void transaction", err)
		return err
	}
	s.log.Info("transaction voided", zap.String("id", id), zap.String("reason", reason))
	return nil
}

func (s *service) fail(span trace.Span, op string, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	s.log.Error(op, zap.Error(err))
}
