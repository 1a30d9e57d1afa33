// Package settings implements Component J: the party-settings model
// exchanged at handshake time via a GetSettings request, and the
// compatibility merge two peers perform to agree on a common protocol
// version, common-flags set, and per-interface version floor. Grounded on
// the settings negotiation described in spec §3 and on the reference
// implementation's CspPartySettings handling in CspMessaging/Server.h.
package settings

import (
	"io"
	"sort"

	"github.com/ocx/csp/internal/csp/body"
	"github.com/ocx/csp/internal/csp/context"
	"github.com/ocx/csp/internal/csp/primitive"
	"github.com/ocx/csp/internal/csp/status"
)

// InterfaceSupport names one interface this party implements and the
// version of it that party speaks.
type InterfaceSupport struct {
	ID      context.StructID
	Version uint32
}

// PartySettings is the struct exchanged in a GetSettings reply.
// CommonFlags overrides the generated default body processor because
// CommonFlags is an opaque bag: it is written as its raw u32 rather than
// recursed into.
type PartySettings struct {
	SupportedProtocolVersions []uint16
	MandatoryCommonFlags      context.CommonFlags
	ForbiddenCommonFlags      context.CommonFlags
	Interfaces                []InterfaceSupport
}

var partySettingsID = context.StructID{0x50, 0x41, 0x52, 0x54, 0x59, 0x53, 0x45, 0x54}

func (PartySettings) StructID() context.StructID             { return partySettingsID }
func (PartySettings) LatestVersion() uint32                  { return 1 }
func (PartySettings) MinSupportedVersion() uint32             { return 1 }
func (PartySettings) MandatoryDataFlags() context.DataFlags  { return 0 }
func (PartySettings) ForbiddenDataFlags() context.DataFlags  { return 0 }

// Category is NotSimplyAssignable: the struct contains variable-length
// slices and must always go through the field-by-field path.
func (PartySettings) Category() body.LayoutCategory { return body.NotSimplyAssignable }

// SerializeFields writes the protocol-version list, the two flag words as
// raw u32s, and the interface list.
func (s PartySettings) SerializeFields(w io.Writer, ctx *context.DataContext) status.Status {
	if st := primitive.WriteSize(w, len(s.SupportedProtocolVersions)); st != status.NoError {
		return st
	}
	for _, v := range s.SupportedProtocolVersions {
		if st := primitive.WriteFixed(w, v, false); st != status.NoError {
			return st
		}
	}
	if st := primitive.WriteFixed(w, uint32(s.MandatoryCommonFlags), false); st != status.NoError {
		return st
	}
	if st := primitive.WriteFixed(w, uint32(s.ForbiddenCommonFlags), false); st != status.NoError {
		return st
	}
	if st := primitive.WriteSize(w, len(s.Interfaces)); st != status.NoError {
		return st
	}
	for _, iface := range s.Interfaces {
		if _, err := w.Write(iface.ID[:]); err != nil {
			return status.ErrorNoMemory
		}
		if st := primitive.WriteFixed(w, iface.Version, false); st != status.NoError {
			return st
		}
	}
	return status.NoError
}

// DeserializeFields mirrors SerializeFields.
func (s *PartySettings) DeserializeFields(r io.Reader, ctx *context.DataContext) status.Status {
	n, st := primitive.ReadSize(r)
	if st != status.NoError {
		return st
	}
	s.SupportedProtocolVersions = make([]uint16, n)
	for i := range s.SupportedProtocolVersions {
		if st := primitive.ReadFixed(r, &s.SupportedProtocolVersions[i], false); st != status.NoError {
			return st
		}
	}
	var mandatory, forbidden uint32
	if st := primitive.ReadFixed(r, &mandatory, false); st != status.NoError {
		return st
	}
	if st := primitive.ReadFixed(r, &forbidden, false); st != status.NoError {
		return st
	}
	s.MandatoryCommonFlags = context.CommonFlags(mandatory)
	s.ForbiddenCommonFlags = context.CommonFlags(forbidden)

	n, st = primitive.ReadSize(r)
	if st != status.NoError {
		return st
	}
	s.Interfaces = make([]InterfaceSupport, n)
	for i := range s.Interfaces {
		if _, err := io.ReadFull(r, s.Interfaces[i].ID[:]); err != nil {
			return status.ErrorOverflow
		}
		if st := primitive.ReadFixed(r, &s.Interfaces[i].Version, false); st != status.NoError {
			return st
		}
	}
	return status.NoError
}

// GetCompatibleSettings computes the intersection of a and b's protocol
// versions, the union of their mandatory and forbidden common-flags, and
// the per-interface minimum version across interfaces both parties
// declare, per spec §3's compatibility rule.
func GetCompatibleSettings(a, b PartySettings) (PartySettings, status.Status) {
	versions := intersectVersions(a.SupportedProtocolVersions, b.SupportedProtocolVersions)
	if len(versions) == 0 {
		return PartySettings{}, status.ErrorMismatchOfProtocolVersions
	}
	mandatory := a.MandatoryCommonFlags | b.MandatoryCommonFlags
	forbidden := a.ForbiddenCommonFlags | b.ForbiddenCommonFlags
	if mandatory&forbidden != 0 {
		return PartySettings{}, status.ErrorNotCompatibleCommonFlagsSettings
	}
	interfaces := intersectInterfaces(a.Interfaces, b.Interfaces)
	return PartySettings{
		SupportedProtocolVersions: versions,
		MandatoryCommonFlags:      mandatory,
		ForbiddenCommonFlags:      forbidden,
		Interfaces:                interfaces,
	}, status.NoError
}

func intersectVersions(a, b []uint16) []uint16 {
	bSet := make(map[uint16]struct{}, len(b))
	for _, v := range b {
		bSet[v] = struct{}{}
	}
	var out []uint16
	for _, v := range a {
		if _, ok := bSet[v]; ok {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] > out[j] })
	return out
}

func intersectInterfaces(a, b []InterfaceSupport) []InterfaceSupport {
	bByID := make(map[context.StructID]uint32, len(b))
	for _, iface := range b {
		bByID[iface.ID] = iface.Version
	}
	var out []InterfaceSupport
	for _, iface := range a {
		if bVersion, ok := bByID[iface.ID]; ok {
			v := iface.Version
			if bVersion < v {
				v = bVersion
			}
			out = append(out, InterfaceSupport{ID: iface.ID, Version: v})
		}
	}
	return out
}
