package actor

import (
	"errors"
	"fmt"
	"time"

	"github.com/bbr111/byd-hvs/internal/config"
	"github.com/bbr111/byd-hvs/internal/core/domain"
	"github.com/bbr111/byd-hvs/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"
)

const (
	HADISCOVERY_ACTOR_ID = "hadiscovery"

	// Identity comes from a full poll cycle, so the health window and the
	// info request both get generous timeouts.
	identityRequestTimeout = 100 * time.Second
)

type HADiscoveryActor struct {
	config              *config.Config
	behavior            actor.Behavior
	stash               *actorutil.Stash
	batteryActor        *actor.PID
	mqttActor           *actor.PID
	batteryActorHealthy bool
	mqttActorHealthy    bool
	healthyRecv         int

	logger *zap.Logger
}

func NewHADiscoveryActor(config *config.Config, batteryActor *actor.PID, mqttActor *actor.PID, logger *zap.Logger) *HADiscoveryActor {
	act := &HADiscoveryActor{
		config:       config,
		batteryActor: batteryActor,
		mqttActor:    mqttActor,
		behavior:     actor.NewBehavior(),
		stash:        &actorutil.Stash{},
		logger:       actorutil.ActorLogger(domain.ACTOR_ID_HA_DISCOVERY, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *HADiscoveryActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *HADiscoveryActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("hadiscovery@starting started")

		// Check battery and MQTT actor healthy
		state.healthyRecv = 0
		state.batteryActorHealthy = false
		state.mqttActorHealthy = false
		// Battery Actor Request
		actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.batteryActor, domain.ActorHealthRequest{}, 2*time.Second), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_BATTERY,
				Healthy: false,
			}
		})
		// MQTT Actor Request
		actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.mqttActor, domain.ActorHealthRequest{}, 2*time.Second), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_MQTT,
				Healthy: false,
			}
		})
		state.behavior.Become(state.WaitingHealthyReceive)
	case *actor.Restarting:
	default:
		state.logger.Debug("hadiscovery@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *HADiscoveryActor) WaitingHealthyReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthResponse:
		state.logger.Debug("hadiscovery@healthcheck ActorHealthResponse", zap.String("sender", msg.Id), zap.Bool("healthy", msg.Healthy))
		state.healthyRecv++
		if msg.Healthy {
			switch msg.Id {
			case domain.ACTOR_ID_BATTERY:
				state.batteryActorHealthy = true
			case domain.ACTOR_ID_MQTT:
				state.mqttActorHealthy = true
			}
		}
		if state.healthyRecv == 2 {

			if state.batteryActorHealthy && state.mqttActorHealthy {
				// Ask battery for its identity
				actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.batteryActor, domain.GetBatteryIdentityRequest{}, identityRequestTimeout), func(err error) any {
					return domain.GetBatteryIdentityResponse{
						ActorResponseMixIn: domain.ActorResponseMixIn{
							ResponseError: err,
						},
					}
				})
				state.behavior.Become(state.WaitingInfoReceive)
				state.stash.UnstashAll(ctx)
			} else {
				panic(errors.New("MQTT Actor or Battery Actor are not healthy"))
			}
		}
	default:
		state.logger.Debug("hadiscovery@healthcheck: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *HADiscoveryActor) Done(ctx actor.Context) {

}

func (state *HADiscoveryActor) WaitingInfoReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.GetBatteryIdentityResponse:
		if msg.HasResponseError() {
			panic(msg.GetResponseError())
		}
		state.logger.Debug("hadiscovery@info: GetBatteryIdentityResponse", zap.Any("identity", msg.Identity))

		var sensors []domain.GenericSensor

		bridgeDevice := domain.BridgeDevice(state.config.MQTT.BaseTopic)
		sensors = append(sensors, domain.BridgeSensors(bridgeDevice)...)

		batteryDevice := domain.BatteryDevice(msg.Identity)
		batteryDevice.ViaDevice = bridgeDevice.Id
		batterySensors := domain.BatteryBaseSensors(batteryDevice)
		for i := range batterySensors {
			if i > 0 {
				batterySensors[i].Device = domain.IdDevice(batteryDevice)
			}
			sensors = append(sensors, batterySensors[i])
		}
		if state.config.MonitorConfig.ShowDiagnostics {
			sensors = append(sensors, domain.BatteryDiagnosticSensors(domain.IdDevice(batteryDevice))...)
		}

		for tower := 1; tower <= msg.Identity.Towers; tower++ {
			towerDevice := domain.TowerDevice(batteryDevice, tower)
			towerSensors := domain.TowerSensors(towerDevice, tower, state.config.MonitorConfig.ShowDiagnostics)
			for i := range towerSensors {
				if i > 0 {
					towerSensors[i].Device = domain.IdDevice(towerDevice)
				}
				sensors = append(sensors, towerSensors[i])
			}
			if state.config.MonitorConfig.ShowCellVoltage {
				sensors = append(sensors, domain.CellVoltageSensors(domain.IdDevice(towerDevice), tower, msg.Identity)...)
			}
			if state.config.MonitorConfig.ShowCellTemperature {
				sensors = append(sensors, domain.CellTemperatureSensors(domain.IdDevice(towerDevice), tower, msg.Identity)...)
			}
		}

		ctx.Send(state.mqttActor, domain.PublishDiscoveryRequest{
			Sensors: sensors,
		})
		state.behavior.Become(state.Done)

	default:
		state.logger.Debug("hadiscovery@info: default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}
