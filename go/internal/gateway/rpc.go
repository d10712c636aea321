package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/mcdev12/shotclock/go/internal/clock"
	"github.com/mcdev12/shotclock/go/internal/panel"
)

const (
	// PanelServiceName is the fully-qualified name of the panel control service.
	PanelServiceName = "shotclock.v1.PanelService"

	PanelServiceSnapshotProcedure   = "/shotclock.v1.PanelService/Snapshot"
	PanelServiceToggleRunProcedure  = "/shotclock.v1.PanelService/ToggleRun"
	PanelServiceResetAllProcedure   = "/shotclock.v1.PanelService/ResetAll"
	PanelServiceResetShotProcedure  = "/shotclock.v1.PanelService/ResetShot"
	PanelServiceAdjustShotProcedure = "/shotclock.v1.PanelService/AdjustShot"
)

// PanelService exposes panel control over Connect. Requests and responses are
// google.protobuf.Struct messages: requests carry "panel_id" (and "delta_ms"
// for AdjustShot), responses carry the panel snapshot.
type PanelService struct {
	board *panel.Board
}

func NewPanelService(board *panel.Board) *PanelService {
	return &PanelService{board: board}
}

// NewPanelServiceHandler builds an HTTP handler serving every PanelService procedure.
func NewPanelServiceHandler(svc *PanelService, opts ...connect.HandlerOption) (string, http.Handler) {
	mux := http.NewServeMux()
	mux.Handle(PanelServiceSnapshotProcedure, connect.NewUnaryHandler(PanelServiceSnapshotProcedure, svc.Snapshot, opts...))
	mux.Handle(PanelServiceToggleRunProcedure, connect.NewUnaryHandler(PanelServiceToggleRunProcedure, svc.ToggleRun, opts...))
	mux.Handle(PanelServiceResetAllProcedure, connect.NewUnaryHandler(PanelServiceResetAllProcedure, svc.ResetAll, opts...))
	mux.Handle(PanelServiceResetShotProcedure, connect.NewUnaryHandler(PanelServiceResetShotProcedure, svc.ResetShot, opts...))
	mux.Handle(PanelServiceAdjustShotProcedure, connect.NewUnaryHandler(PanelServiceAdjustShotProcedure, svc.AdjustShot, opts...))
	return "/" + PanelServiceName + "/", mux
}

// Snapshot returns the current state of a panel
func (s *PanelService) Snapshot(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	return s.run(ctx, req.Msg, func(ctx context.Context, p *panel.Controller) (panel.Snapshot, error) {
		return p.Snapshot(ctx)
	})
}

// ToggleRun starts or pauses a panel
func (s *PanelService) ToggleRun(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	return s.run(ctx, req.Msg, ActionToggle.Apply)
}

// ResetAll restores a panel to its defaults
func (s *PanelService) ResetAll(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	return s.run(ctx, req.Msg, ActionResetAll.Apply)
}

// ResetShot resets a panel's shot clock to the active reset duration
func (s *PanelService) ResetShot(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	return s.run(ctx, req.Msg, ActionResetShot.Apply)
}

// AdjustShot moves a panel's shot clock by delta_ms
func (s *PanelService) AdjustShot(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	v, ok := req.Msg.GetFields()["delta_ms"]
	if !ok {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("delta_ms is required"))
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("delta_ms must be a number"))
	}
	delta, err := deltaFromMillis(n.NumberValue)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	return s.run(ctx, req.Msg, func(ctx context.Context, p *panel.Controller) (panel.Snapshot, error) {
		return p.AdjustShot(ctx, delta)
	})
}

// deltaFromMillis converts a requested nudge to a duration. Magnitudes past the
// shot clock cap are clamped before conversion so they cannot overflow int64.
func deltaFromMillis(ms float64) (time.Duration, error) {
	if math.IsNaN(ms) || math.IsInf(ms, 0) {
		return 0, fmt.Errorf("delta_ms must be finite, got %v", ms)
	}
	limit := float64(clock.MaxShotDuration.Milliseconds())
	ms = math.Max(-limit, math.Min(limit, ms))
	return time.Duration(ms * float64(time.Millisecond)), nil
}

func (s *PanelService) run(ctx context.Context, msg *structpb.Struct, fn func(context.Context, *panel.Controller) (panel.Snapshot, error)) (*connect.Response[structpb.Struct], error) {
	panelID := msg.GetFields()["panel_id"].GetStringValue()
	if panelID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("panel_id is required"))
	}

	p, err := s.board.Panel(panelID)
	if err != nil {
		return nil, connect.NewError(connect.CodeNotFound, err)
	}

	snap, err := fn(ctx, p)
	if err != nil {
		return nil, connect.NewError(codeFor(err), err)
	}

	out, err := snapshotToStruct(snap)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(out), nil
}

// snapshotToStruct reuses the snapshot's JSON form so RPC and HTTP clients see the same fields.
func snapshotToStruct(s panel.Snapshot) (*structpb.Struct, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	out := &structpb.Struct{}
	if err := out.UnmarshalJSON(data); err != nil {
		return nil, fmt.Errorf("convert snapshot: %w", err)
	}
	return out, nil
}

func codeFor(err error) connect.Code {
	switch {
	case errors.Is(err, panel.ErrStopped):
		return connect.CodeUnavailable
	case errors.Is(err, context.Canceled):
		return connect.CodeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return connect.CodeDeadlineExceeded
	default:
		return connect.CodeInternal
	}
}
