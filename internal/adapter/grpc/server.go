package grpc

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/simaogato/shareledger/internal/domain"
	"github.com/simaogato/shareledger/internal/usecase/portfolio"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "shareledger.v1.Ledger"

// Ledger is the part of the holding lifecycle exposed over gRPC
type Ledger interface {
	ListHoldings(ctx context.Context, status domain.HoldingStatus) ([]*domain.Holding, error)
	Sell(ctx context.Context, req domain.SaleRequest) (*domain.SaleResult, error)
}

// Portfolio values the portfolio
type Portfolio interface {
	Summary(ctx context.Context) (*portfolio.Summary, error)
}

// LedgerServer is the server API of shareledger.v1.Ledger
type LedgerServer interface {
	GetSummary(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
	ListHoldings(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
	Sell(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// Server implements the Ledger gRPC service
type Server struct {
	LedgerService    Ledger
	PortfolioService Portfolio
}

// NewServer creates a new gRPC server instance
func NewServer(ledgerService Ledger, portfolioService Portfolio) *Server {
	return &Server{
		LedgerService:    ledgerService,
		PortfolioService: portfolioService,
	}
}

// Register adds the Ledger service to a gRPC server
func Register(s grpclib.ServiceRegistrar, srv LedgerServer) {
	s.RegisterService(&ledgerServiceDesc, srv)
}

// GetSummary handles the GetSummary RPC
func (s *Server) GetSummary(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	summary, err := s.PortfolioService.Summary(ctx)
	if err != nil {
		return nil, mapError(err)
	}

	holdings := make([]interface{}, 0, len(summary.Holdings))
	for _, v := range summary.Holdings {
		h := holdingFields(v.Holding)
		h["name"] = v.Name
		h["investment"] = v.Investment.String()
		h["current_price"] = optional(v.CurrentPrice)
		h["current_value"] = optional(v.CurrentValue)
		h["profit_loss"] = optional(v.ProfitLoss)
		h["profit_percent"] = optional(rounded(v.ProfitPercent))
		h["trend"] = string(v.Trend)
		holdings = append(holdings, h)
	}

	return toStruct(map[string]interface{}{
		"holdings": holdings,
		"totals": map[string]interface{}{
			"quantity":       summary.Totals.Quantity,
			"investment":     summary.Totals.Investment.String(),
			"current_value":  summary.Totals.CurrentValue.String(),
			"profit_loss":    summary.Totals.ProfitLoss.String(),
			"profit_percent": optional(rounded(summary.Totals.ProfitPercent)),
			"priced":         summary.Totals.Priced,
			"unpriced":       summary.Totals.Unpriced,
		},
		"realized_totals": map[string]interface{}{
			"quantity":    summary.RealizedTotals.Quantity,
			"cost_basis":  summary.RealizedTotals.CostBasis.String(),
			"proceeds":    summary.RealizedTotals.Proceeds.String(),
			"profit_loss": summary.RealizedTotals.ProfitLoss.String(),
		},
	})
}

// ListHoldings handles the ListHoldings RPC
func (s *Server) ListHoldings(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	holdings, err := s.LedgerService.ListHoldings(ctx, "")
	if err != nil {
		return nil, mapError(err)
	}

	list := make([]interface{}, 0, len(holdings))
	for _, h := range holdings {
		list = append(list, holdingFields(h))
	}
	return toStruct(map[string]interface{}{"holdings": list})
}

// Sell handles the Sell RPC. Numeric fields may be numbers or strings.
func (s *Server) Sell(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	sale, err := domain.ParseSaleRequest(
		scalar(fields["holding_id"]),
		scalar(fields["quantity"]),
		scalar(fields["sell_price"]),
		fields["notes"].GetStringValue(),
	)
	if err != nil {
		return nil, mapError(err)
	}

	result, err := s.LedgerService.Sell(ctx, sale)
	if err != nil {
		return nil, mapError(err)
	}

	return toStruct(map[string]interface{}{
		"holding_id":         result.HoldingID,
		"quantity":           result.Quantity,
		"sell_price":         result.SellPrice.String(),
		"sell_date":          result.SellDate.Format(domain.DateLayout),
		"remaining_quantity": result.RemainingQuantity,
		"status":             string(result.Status),
	})
}

func holdingFields(h *domain.Holding) map[string]interface{} {
	return map[string]interface{}{
		"id":             h.ID,
		"symbol":         h.Symbol,
		"quantity":       h.Quantity,
		"purchase_price": h.PurchasePrice.String(),
		"purchase_date":  h.PurchaseDate.Format(domain.DateLayout),
		"notes":          h.Notes,
		"status":         string(h.Status),
	}
}

// optional renders a missing amount as null
func optional(d *decimal.Decimal) interface{} {
	if d == nil {
		return nil
	}
	return d.String()
}

func rounded(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	r := d.Round(4)
	return &r
}

// scalar reads a number or string value as text
func scalar(v *structpb.Value) string {
	switch k := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		return strconv.FormatFloat(k.NumberValue, 'f', -1, 64)
	case *structpb.Value_StringValue:
		return k.StringValue
	default:
		return ""
	}
}

func toStruct(m map[string]interface{}) (*structpb.Struct, error) {
	st, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	return st, nil
}

// mapError converts domain errors to gRPC status errors
func mapError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return status.Errorf(codes.InvalidArgument, "%s", err.Error())
	case errors.Is(err, domain.ErrInsufficientShares):
		return status.Errorf(codes.FailedPrecondition, "%s", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return status.Errorf(codes.NotFound, "%s", err.Error())
	case errors.Is(err, domain.ErrExternalUnavailable):
		return status.Errorf(codes.Unavailable, "%s", err.Error())
	default:
		return status.Errorf(codes.Internal, "%s", err.Error())
	}
}

func getSummaryHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpclib.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	call := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(LedgerServer).GetSummary(ctx, req.(*emptypb.Empty))
	}
	return invoke(ctx, srv, in, "GetSummary", call, interceptor)
}

func listHoldingsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpclib.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	call := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(LedgerServer).ListHoldings(ctx, req.(*emptypb.Empty))
	}
	return invoke(ctx, srv, in, "ListHoldings", call, interceptor)
}

func sellHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpclib.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	call := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(LedgerServer).Sell(ctx, req.(*structpb.Struct))
	}
	return invoke(ctx, srv, in, "Sell", call, interceptor)
}

func invoke(ctx context.Context, srv, in interface{}, method string, call grpclib.UnaryHandler, interceptor grpclib.UnaryServerInterceptor) (interface{}, error) {
	if interceptor == nil {
		return call(ctx, in)
	}
	info := &grpclib.UnaryServerInfo{
		Server:     srv,
		FullMethod: fullMethod(method),
	}
	return interceptor(ctx, in, info, call)
}

func fullMethod(method string) string {
	return fmt.Sprintf("/%s/%s", ServiceName, method)
}

var ledgerServiceDesc = grpclib.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LedgerServer)(nil),
	Methods: []grpclib.MethodDesc{
		{MethodName: "GetSummary", Handler: getSummaryHandler},
		{MethodName: "ListHoldings", Handler: listHoldingsHandler},
		{MethodName: "Sell", Handler: sellHandler},
	},
	Streams:  []grpclib.StreamDesc{},
	Metadata: "shareledger/v1/ledger.proto",
}
