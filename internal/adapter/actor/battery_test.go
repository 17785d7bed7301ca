package actor

import (
	"testing"
	"time"

	"github.com/bbr111/byd-hvs/internal/core/domain"
	"github.com/bbr111/byd-hvs/internal/util/actorutil"
	"github.com/bbr111/byd-hvs/pkg/bydhvs"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestPollBatteryActor(t *testing.T) {

	assert := assert.New(t)

	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)
	context := as.Root

	props := actor.PropsFromProducer(func() actor.Actor {
		return NewBatteryActor(bydhvs.CreateTestBatteryReader(), logger)
	})
	pid := context.Spawn(props)

	time.Sleep(1 * time.Second)

	result, err := context.RequestFuture(pid, domain.PollBatteryRequest{}, 15*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	resp := result.(domain.PollBatteryResponse)

	assert.False(resp.HasResponseError())
	assert.Equal("P030T020Z1234567890", resp.Snapshot.Identity.Serial)
	assert.Equal(87.0, resp.Snapshot.SOC)
	assert.Len(resp.Snapshot.Towers, 1)
	assert.Len(resp.Snapshot.Towers[0].Modules, 2)

	context.Stop(pid)

	as.Shutdown()
}

func TestGetBatteryIdentityActor(t *testing.T) {

	assert := assert.New(t)

	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)
	context := as.Root

	props := actor.PropsFromProducer(func() actor.Actor {
		return NewBatteryActor(bydhvs.CreateTestBatteryReader(), logger)
	})
	pid := context.Spawn(props)

	time.Sleep(1 * time.Second)

	result, err := context.RequestFuture(pid, domain.GetBatteryIdentityRequest{}, 15*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	resp := result.(domain.GetBatteryIdentityResponse)

	assert.False(resp.HasResponseError())
	assert.Equal(bydhvs.VariantHVS, resp.Identity.Variant)
	assert.Equal(1, resp.Identity.Towers)
	assert.Equal(16, resp.Identity.CellsPerModule)

	context.Stop(pid)

	as.Shutdown()
}

func TestBatteryActorHealth(t *testing.T) {

	assert := assert.New(t)

	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)
	context := as.Root

	props := actor.PropsFromProducer(func() actor.Actor {
		return NewBatteryActor(bydhvs.CreateTestBatteryReader(), logger)
	})
	pid := context.Spawn(props)

	time.Sleep(500 * time.Millisecond)

	result, err := context.RequestFuture(pid, domain.ActorHealthRequest{}, 5*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	resp := result.(domain.ActorHealthResponse)

	assert.True(resp.Healthy)
	assert.Equal(BATTERY_ACTOR_ID, resp.Id)

	context.Stop(pid)

	as.Shutdown()
}
