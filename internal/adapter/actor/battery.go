package actor

import (
	"context"
	"fmt"
	"time"

	"github.com/bbr111/byd-hvs/internal/core/domain"
	"github.com/bbr111/byd-hvs/internal/util/actorutil"
	"github.com/bbr111/byd-hvs/pkg/bydhvs"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/reugn/go-quartz/logger"
	"go.uber.org/zap"
)

const (
	BATTERY_ACTOR_ID = "battery"

	// One poll cycle walks identity, status and every tower, so the task
	// budget is well above a single exchange timeout.
	pollTaskTimeout = 90 * time.Second
)

type BatteryActor struct {
	behavior actor.Behavior
	stash    *actorutil.Stash
	reader   bydhvs.BatteryReader
	logger   *zap.Logger
}

type backgroundTaskResult struct {
	message any
	replyTo *actor.PID
}

func NewBatteryActor(reader bydhvs.BatteryReader, logger *zap.Logger) *BatteryActor {
	act := &BatteryActor{
		reader:   reader,
		behavior: actor.NewBehavior(),
		stash:    &actorutil.Stash{},
		logger:   actorutil.ActorLogger(BATTERY_ACTOR_ID, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *BatteryActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *BatteryActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("battery@starting started")
		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	case *actor.Restarting:
	default:
		state.logger.Debug("battery@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *BatteryActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("battery@default: ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      BATTERY_ACTOR_ID,
			Healthy: true,
			State:   "idle",
		})
	case domain.PollBatteryRequest:
		state.logger.Debug("battery@default: PollBatteryRequest")
		sender := actorutil.ForRequest(msg).ReplyTo(ctx)

		actorutil.MapBackgroundTask(actorutil.NewBackgroundTask(ctx, state.pollBattery),
			mapTaskResult[domain.PollBatteryResponse](sender)).Recover(func(err error) backgroundTaskResult {
			return backgroundTaskResult{
				message: domain.PollBatteryResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: err,
					},
				},
				replyTo: sender,
			}
		}).WithTimeout(pollTaskTimeout).PipeTo(ctx.Self())
		state.behavior.BecomeStacked(state.WaitingBattery)
	case domain.GetBatteryIdentityRequest:
		state.logger.Debug("battery@default: GetBatteryIdentityRequest")
		sender := actorutil.ForRequest(msg).ReplyTo(ctx)

		actorutil.MapBackgroundTask(actorutil.NewBackgroundTask(ctx, state.getBatteryIdentity),
			mapTaskResult[domain.GetBatteryIdentityResponse](sender)).Recover(func(err error) backgroundTaskResult {
			return backgroundTaskResult{
				message: domain.GetBatteryIdentityResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: err,
					},
				},
				replyTo: sender,
			}
		}).WithTimeout(pollTaskTimeout).PipeTo(ctx.Self())
		state.behavior.BecomeStacked(state.WaitingBattery)
	default:
		state.logger.Debug("battery@default default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *BatteryActor) WaitingBattery(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		// a poll cycle can outlast the health check window
		state.logger.Debug("battery@WaitingBattery: ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      BATTERY_ACTOR_ID,
			Healthy: true,
			State:   "polling",
		})
	case backgroundTaskResult:
		state.logger.Debug("battery@WaitingBattery backgroundTaskResult", zap.String("type", fmt.Sprintf("%T", msg.message)))
		ctx.Send(msg.replyTo, msg.message)
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	default:
		state.logger.Debug("battery@WaitingBattery stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (a *BatteryActor) pollBattery() (*domain.PollBatteryResponse, error) {
	ctx, cancel := context.WithTimeout(context.Background(), pollTaskTimeout)
	defer cancel()

	snap, err := a.reader.Poll(ctx)
	if err != nil {
		logger.Error(err)
		return &domain.PollBatteryResponse{
			ActorResponseMixIn: domain.ActorResponseMixIn{
				ResponseError: err,
			},
		}, nil
	}
	return &domain.PollBatteryResponse{
		Snapshot: snap,
	}, nil
}

func (a *BatteryActor) getBatteryIdentity() (*domain.GetBatteryIdentityResponse, error) {
	ctx, cancel := context.WithTimeout(context.Background(), pollTaskTimeout)
	defer cancel()

	snap, err := a.reader.Poll(ctx)
	if err != nil {
		logger.Error(err)
		return nil, err
	}
	return &domain.GetBatteryIdentityResponse{
		Identity: &snap.Identity,
	}, nil
}

func mapTaskResult[T any](sender *actor.PID) func(t *T) *backgroundTaskResult {
	return func(t *T) *backgroundTaskResult {
		return &backgroundTaskResult{
			message: *t,
			replyTo: sender,
		}
	}
}
