package service

import (
	"context"
	"fmt"
	"log/slog"

	"crypto-mcp/internal/domain"
	"crypto-mcp/internal/exchange"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// OrderOptions adjusts buy and sell requests. An empty Type means limit.
type OrderOptions struct {
	Type          string  `json:"type,omitempty"`
	IcebergQty    float64 `json:"icebergQty,omitempty"`
	StopPrice     float64 `json:"stopPrice,omitempty"`
	ClientOrderID string  `json:"clientOrderId,omitempty"`
}

type AccountService struct {
	tracer   trace.Tracer
	resolver ExchangeResolver
	logger   *slog.Logger
}

func NewAccountService(tracer trace.Tracer, resolver ExchangeResolver, logger *slog.Logger) *AccountService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AccountService{tracer: tracer, resolver: resolver, logger: logger}
}

func (s *AccountService) Balance(ctx context.Context, exchangeID string) (*domain.Balance, error) {
	ctx, span := s.tracer.Start(ctx, "account-service.balance")
	defer span.End()

	ex, err := s.resolver.Get(exchangeID)
	if err != nil {
		return nil, err
	}
	return ex.Balance(ctx)
}

func (s *AccountService) DustLog(ctx context.Context, exchangeID string) ([]domain.DustLogEntry, error) {
	ctx, span := s.tracer.Start(ctx, "account-service.dust-log")
	defer span.End()

	ex, err := s.resolver.Get(exchangeID)
	if err != nil {
		return nil, err
	}
	d, ok := ex.(exchange.DustLogger)
	if !ok {
		return nil, fmt.Errorf("%s dust log: %w", ex.ID(), exchange.ErrNotSupported)
	}
	return d.DustLog(ctx)
}

func (s *AccountService) Positions(ctx context.Context, exchangeID string) ([]domain.Position, error) {
	ctx, span := s.tracer.Start(ctx, "account-service.positions")
	defer span.End()

	ex, err := s.resolver.Get(exchangeID)
	if err != nil {
		return nil, err
	}
	d, ok := ex.(exchange.DerivativesReader)
	if !ok {
		return nil, fmt.Errorf("%s positions: %w", ex.ID(), exchange.ErrNotSupported)
	}
	return d.Positions(ctx)
}

func (s *AccountService) Buy(ctx context.Context, exchangeID, sym string, quantity, price float64, opts OrderOptions) (*domain.Order, error) {
	return s.place(ctx, exchangeID, sym, domain.SideBuy, quantity, price, opts)
}

func (s *AccountService) Sell(ctx context.Context, exchangeID, sym string, quantity, price float64, opts OrderOptions) (*domain.Order, error) {
	return s.place(ctx, exchangeID, sym, domain.SideSell, quantity, price, opts)
}

func (s *AccountService) MarketBuy(ctx context.Context, exchangeID, sym string, quantity float64) (*domain.Order, error) {
	return s.place(ctx, exchangeID, sym, domain.SideBuy, quantity, 0, OrderOptions{Type: string(domain.OrderTypeMarket)})
}

func (s *AccountService) MarketSell(ctx context.Context, exchangeID, sym string, quantity float64) (*domain.Order, error) {
	return s.place(ctx, exchangeID, sym, domain.SideSell, quantity, 0, OrderOptions{Type: string(domain.OrderTypeMarket)})
}

func (s *AccountService) place(ctx context.Context, exchangeID, sym string, side domain.OrderSide, quantity, price float64, opts OrderOptions) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "account-service.create-order")
	defer span.End()

	orderType := domain.OrderTypeLimit
	if opts.Type != "" {
		t, err := domain.ParseOrderType(opts.Type)
		if err != nil {
			return nil, err
		}
		orderType = t
	}
	req := domain.OrderRequest{
		Symbol:        sym,
		Side:          side,
		Type:          orderType,
		Quantity:      quantity,
		StopPrice:     opts.StopPrice,
		IcebergQty:    opts.IcebergQty,
		ClientOrderID: opts.ClientOrderID,
	}
	if orderType != domain.OrderTypeMarket {
		req.Price = price
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ex, err := s.resolver.Get(exchangeID)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String("exchange", ex.ID()),
		attribute.String("side", string(side)),
		attribute.String("type", string(orderType)),
	)
	s.logger.Info("placing order", "exchange", ex.ID(), "symbol", sym, "side", side, "type", orderType, "quantity", quantity, "price", req.Price)
	return ex.CreateOrder(ctx, req)
}

func (s *AccountService) OrderStatus(ctx context.Context, exchangeID, sym, orderID string) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "account-service.order-status")
	defer span.End()

	if err := requireSymbol(sym); err != nil {
		return nil, err
	}
	if orderID == "" {
		return nil, fmt.Errorf("orderId is required")
	}
	ex, err := s.resolver.Get(exchangeID)
	if err != nil {
		return nil, err
	}
	return ex.Order(ctx, sym, orderID)
}

func (s *AccountService) AllOrders(ctx context.Context, exchangeID, sym string) ([]domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "account-service.all-orders")
	defer span.End()

	if err := requireSymbol(sym); err != nil {
		return nil, err
	}
	ex, err := s.resolver.Get(exchangeID)
	if err != nil {
		return nil, err
	}
	return ex.Orders(ctx, sym)
}

func (s *AccountService) OpenOrders(ctx context.Context, exchangeID, sym string) ([]domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "account-service.open-orders")
	defer span.End()

	ex, err := s.resolver.Get(exchangeID)
	if err != nil {
		return nil, err
	}
	return ex.OpenOrders(ctx, sym)
}

func (s *AccountService) Cancel(ctx context.Context, exchangeID, sym, orderID string) (*domain.CancelResult, error) {
	ctx, span := s.tracer.Start(ctx, "account-service.cancel")
	defer span.End()

	if err := requireSymbol(sym); err != nil {
		return nil, err
	}
	if orderID == "" {
		return nil, fmt.Errorf("orderId is required")
	}
	ex, err := s.resolver.Get(exchangeID)
	if err != nil {
		return nil, err
	}
	return ex.CancelOrder(ctx, sym, orderID)
}

func (s *AccountService) CancelAll(ctx context.Context, exchangeID, sym string) ([]domain.CancelResult, error) {
	ctx, span := s.tracer.Start(ctx, "account-service.cancel-all")
	defer span.End()

	if err := requireSymbol(sym); err != nil {
		return nil, err
	}
	ex, err := s.resolver.Get(exchangeID)
	if err != nil {
		return nil, err
	}
	return ex.CancelAllOrders(ctx, sym)
}

func (s *AccountService) Trades(ctx context.Context, exchangeID, sym string, limit int) ([]domain.Trade, error) {
	ctx, span := s.tracer.Start(ctx, "account-service.trades")
	defer span.End()

	if err := requireSymbol(sym); err != nil {
		return nil, err
	}
	ex, err := s.resolver.Get(exchangeID)
	if err != nil {
		return nil, err
	}
	return ex.MyTrades(ctx, sym, limit)
}
