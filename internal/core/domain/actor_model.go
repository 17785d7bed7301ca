package domain

import (
	"errors"

	"github.com/bbr111/byd-hvs/pkg/bydhvs"
)

const (
	ACTOR_ID_MASTER       = "master"
	ACTOR_ID_BATTERY      = "battery"
	ACTOR_ID_POLLER       = "poller"
	ACTOR_ID_MQTT         = "mqtt"
	ACTOR_ID_HA_DISCOVERY = "hadiscovery"
)

type PollBatteryRequest struct {
	ActorRequestMixIn
}

type PollBatteryResponse struct {
	ActorResponseMixIn
	Snapshot *bydhvs.Snapshot
}

// FailureKind extracts the classification of a failed poll, if any.
func (r PollBatteryResponse) FailureKind() (bydhvs.FailureKind, bool) {
	var cerr *bydhvs.CycleError
	if errors.As(r.ResponseError, &cerr) {
		return cerr.Kind, true
	}
	return 0, false
}

type GetBatteryIdentityRequest struct {
	ActorRequestMixIn
}

type GetBatteryIdentityResponse struct {
	ActorResponseMixIn
	Identity *bydhvs.Identity
}

type GetLatestSnapshotRequest struct {
	ActorRequestMixIn
}

type GetLatestSnapshotResponse struct {
	ActorResponseMixIn
	Snapshot *bydhvs.Snapshot
}

type PublishMessageRequest struct {
	ActorRequestMixIn
	Topic   string
	Payload string
	Retain  bool
}

type PublishMessageResponse struct {
	ActorResponseMixIn
}

type PublishSensorUpdateRequest struct {
	ActorRequestMixIn
	Retain bool
	Event  SensorUpdateEvent
}

type PublishSensorUpdateResponse struct {
	ActorResponseMixIn
}

type PublishDiscoveryRequest struct {
	ActorRequestMixIn
	Sensors []GenericSensor
}

type PublishDiscoveryResponse struct {
	ActorResponseMixIn
}

type ActorHealthRequest struct {
	ActorRequestMixIn
}

type ActorHealthResponse struct {
	ActorResponseMixIn
	Id      string
	Healthy bool
	State   string
}
