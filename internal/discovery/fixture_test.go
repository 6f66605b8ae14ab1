package discovery

import (
	"github.com/gortps/rtps/internal/endpoint"
	"github.com/gortps/rtps/internal/wire"
)

// endpointParticipantFixture wraps a bare endpoint.Participant for
// discovery tests; NewSPDP/NewSEDP populate its builtin groups.
type endpointParticipantFixture struct {
	p *endpoint.Participant
}

func newEndpointParticipantFixture(prefix wire.GuidPrefix) (*endpointParticipantFixture, error) {
	p := endpoint.NewParticipant(prefix, 0)
	p.MetatrafficMulticastLocators = []wire.Locator{wire.LocatorFromUDPv4(239, 255, 0, 1, 7400)}
	return &endpointParticipantFixture{p: p}, nil
}
