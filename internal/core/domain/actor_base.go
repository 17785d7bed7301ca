package domain

import (
	"github.com/asynkron/protoactor-go/actor"
)

// ActorRef keeps message structs decoupled from protoactor's PID type.
type ActorRef actor.PID

func (r *ActorRef) PID() *actor.PID {
	return (*actor.PID)(r)
}

type ActorRequest interface {
	ReplyTo() *ActorRef
}

// ActorRequestMixIn lets a request carry an explicit reply address, so a
// response can reach the original requester after the message has been
// piped through intermediate actors.
type ActorRequestMixIn struct {
	ReplyToRef *ActorRef
}

func (r ActorRequestMixIn) ReplyTo() *ActorRef {
	return r.ReplyToRef
}

type ActorResponse interface {
	GetResponseError() error
	HasResponseError() bool
}

type ActorResponseMixIn struct {
	ResponseError error
}

func (r ActorResponseMixIn) GetResponseError() error {
	return r.ResponseError
}

func (r ActorResponseMixIn) HasResponseError() bool {
	return r.ResponseError != nil
}
