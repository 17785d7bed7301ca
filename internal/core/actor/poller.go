package actor

import (
	"errors"
	"fmt"
	"time"

	"github.com/bbr111/byd-hvs/internal/config"
	"github.com/bbr111/byd-hvs/internal/core/domain"
	"github.com/bbr111/byd-hvs/internal/core/events"
	. "github.com/bbr111/byd-hvs/internal/util/actorutil"
	"github.com/bbr111/byd-hvs/pkg/bydhvs"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/asynkron/protoactor-go/scheduler"
	"go.uber.org/zap"
)

const pollRequestTimeout = 100 * time.Second

type PollerActor struct {
	behavior  actor.Behavior
	stash     *Stash
	scheduler *scheduler.TimerScheduler

	batteryActor *actor.PID
	config       *config.Config
	eventStream  *eventstream.EventStream

	lastSnapshot *bydhvs.Snapshot
	// nil until the first cycle settles, then tracks the last published
	// availability so transitions publish exactly once
	bridgeOnline *bool

	logger *zap.Logger
}

type pollTick struct {
}

func NewPollerActor(config *config.Config, batteryActor *actor.PID, eventStream *eventstream.EventStream, logger *zap.Logger) *PollerActor {
	act := &PollerActor{
		config:       config,
		batteryActor: batteryActor,
		behavior:     actor.NewBehavior(),
		stash:        &Stash{},
		logger:       ActorLogger(domain.ACTOR_ID_POLLER, logger),
		eventStream:  eventStream,
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *PollerActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *PollerActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("poller@starting started")

		state.scheduler = scheduler.NewTimerScheduler(ctx)
		// first cycle right away, later ones on the configured interval
		ctx.Send(ctx.Self(), pollTick{})

		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	case *actor.Restarting:
	default:
		state.logger.Debug("poller@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *PollerActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("poller@default: ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_POLLER,
			Healthy: true,
			State:   "idle",
		})
	case domain.GetLatestSnapshotRequest:
		state.logger.Debug("poller@default: GetLatestSnapshotRequest")
		state.respondLatestSnapshot(ctx, msg)
	case pollTick:
		state.logger.Debug("poller@default tick")
		PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.batteryActor, domain.PollBatteryRequest{}, pollRequestTimeout), func(err error) any {
			return domain.PollBatteryResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: err,
				},
			}
		})

		// schedule next tick
		state.scheduler.RequestOnce(time.Duration(state.config.MonitorConfig.PollIntervalSeconds)*time.Second, ctx.Self(), pollTick{})
		state.behavior.BecomeStacked(state.WaitingPollReceive)
	default:
		state.logger.Debug("poller@default: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *PollerActor) WaitingPollReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.GetLatestSnapshotRequest:
		// safe to answer from the retained snapshot while a cycle runs
		state.respondLatestSnapshot(ctx, msg)
	case domain.PollBatteryResponse:
		if msg.HasResponseError() {
			state.onPollFailure(msg)
		} else if msg.Snapshot != nil {
			state.onPollSuccess(msg.Snapshot)
		}
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	default:
		state.logger.Debug("poller@waiting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *PollerActor) onPollSuccess(snap *bydhvs.Snapshot) {
	state.logger.Info("poll cycle complete",
		zap.String("serial", snap.Identity.Serial),
		zap.Float64("soc", snap.SOC),
		zap.Float64("power_w", snap.PowerWatt))

	state.lastSnapshot = snap
	state.publishBridgeState(true)

	for _, ev := range events.SnapshotToUpdateEvents(snap) {
		state.eventStream.Publish(ev)
	}
	if state.config.MonitorConfig.ShowDiagnostics {
		for _, ev := range events.SnapshotToDiagnosticUpdateEvents(snap) {
			state.eventStream.Publish(ev)
		}
	}
	if state.config.MonitorConfig.ShowCellVoltage {
		for _, ev := range events.SnapshotToCellVoltageUpdateEvents(snap) {
			state.eventStream.Publish(ev)
		}
	}
	if state.config.MonitorConfig.ShowCellTemperature {
		for _, ev := range events.SnapshotToCellTemperatureUpdateEvents(snap) {
			state.eventStream.Publish(ev)
		}
	}
}

func (state *PollerActor) onPollFailure(msg domain.PollBatteryResponse) {
	err := msg.GetResponseError()
	var cerr *bydhvs.CycleError
	if errors.As(err, &cerr) && cerr.Kind.Transient() {
		// transient network trouble, keep the last snapshot and retry on
		// the next tick
		state.logger.Warn("poll cycle failed",
			zap.String("kind", cerr.Kind.String()),
			zap.String("step", cerr.Step),
			zap.Error(err))
	} else {
		state.logger.Error("poll cycle failed", zap.Error(err))
	}
	state.publishBridgeState(false)
}

// publishBridgeState emits the retained availability only on a change,
// including the very first settled cycle. Repeated failures while the
// battery stays unreachable publish nothing.
func (state *PollerActor) publishBridgeState(online bool) {
	if state.bridgeOnline != nil && *state.bridgeOnline == online {
		return
	}
	state.bridgeOnline = &online
	state.eventStream.Publish(events.BridgeStateToUpdateEvent(online))
}

func (state *PollerActor) respondLatestSnapshot(ctx actor.Context, msg domain.GetLatestSnapshotRequest) {
	resp := domain.GetLatestSnapshotResponse{
		Snapshot: state.lastSnapshot,
	}
	if state.lastSnapshot == nil {
		resp.ResponseError = errors.New("no snapshot yet")
	}
	ForRequest(msg).Respond(ctx, resp)
}
