package xproto

import (
	"fmt"

	"github.com/danmuck/xwire/internal/protocol/codec"
	"github.com/danmuck/xwire/internal/protocol/enum"
	"github.com/danmuck/xwire/internal/protocol/layout"
	"github.com/danmuck/xwire/internal/protocol/wire"
)

// Family is the discriminant of a HOST.
type Family uint8

const (
	FamilyInternet          Family = 0
	FamilyDECnet            Family = 1
	FamilyChaos             Family = 2
	FamilyServerInterpreted Family = 5
	FamilyInternetV6        Family = 6
)

// Host is a HOST: a family tag followed by an address whose format the
// family decides.
type Host interface {
	enum.Variant
	Family() Family
}

// HostAddress is the body every host family shares.
type HostAddress struct {
	Address []byte
}

func (h *HostAddress) Items(*layout.Scope) layout.Items {
	var n uint16
	return layout.Items{
		layout.Unused(),
		layout.Let("address_len", codec.Card16(&n), func() int { return len(h.Address) }),
		layout.Field("address", codec.ByteRun(&h.Address, func() int { return int(n) })).From("address_len"),
		layout.UnusedArray("pad", func() int { return wire.Pad(len(h.Address)) }).From("address"),
	}
}

type InternetHost struct{ HostAddress }

func (*InternetHost) VariantName() string { return "Internet" }
func (*InternetHost) Family() Family      { return FamilyInternet }

type DECnetHost struct{ HostAddress }

func (*DECnetHost) VariantName() string { return "DECnet" }
func (*DECnetHost) Family() Family      { return FamilyDECnet }

type ChaosHost struct{ HostAddress }

func (*ChaosHost) VariantName() string { return "Chaos" }
func (*ChaosHost) Family() Family      { return FamilyChaos }

// ServerInterpretedHost carries "type\x00value".
type ServerInterpretedHost struct{ HostAddress }

func (*ServerInterpretedHost) VariantName() string { return "ServerInterpreted" }
func (*ServerInterpretedHost) Family() Family      { return FamilyServerInterpreted }

type InternetV6Host struct{ HostAddress }

func (*InternetV6Host) VariantName() string { return "InternetV6" }
func (*InternetV6Host) Family() Family      { return FamilyInternetV6 }

// Hosts resolves host families. ServerInterpreted jumps to 5 and
// InternetV6 follows it.
var Hosts = enum.MustNew[Host]("Host",
	enum.Case[Host]("Internet", func() Host { return &InternetHost{} }),
	enum.Case[Host]("DECnet", func() Host { return &DECnetHost{} }),
	enum.Case[Host]("Chaos", func() Host { return &ChaosHost{} }),
	enum.Case[Host]("ServerInterpreted", func() Host { return &ServerInterpretedHost{} }).At(int(FamilyServerInterpreted)),
	enum.Case[Host]("InternetV6", func() Host { return &InternetV6Host{} }),
)

// NewHost builds the host variant for family.
func NewHost(family Family, address []byte) (Host, error) {
	a := HostAddress{Address: address}
	switch family {
	case FamilyInternet:
		return &InternetHost{a}, nil
	case FamilyDECnet:
		return &DECnetHost{a}, nil
	case FamilyChaos:
		return &ChaosHost{a}, nil
	case FamilyServerInterpreted:
		return &ServerInterpretedHost{a}, nil
	case FamilyInternetV6:
		return &InternetV6Host{a}, nil
	}
	return nil, fmt.Errorf("%w: family %d", enum.ErrUnknownVariant, family)
}
