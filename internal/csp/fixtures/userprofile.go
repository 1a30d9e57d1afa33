package fixtures

import (
	"io"

	"github.com/ocx/csp/internal/csp/body"
	"github.com/ocx/csp/internal/csp/context"
	"github.com/ocx/csp/internal/csp/primitive"
	"github.com/ocx/csp/internal/csp/status"
	"github.com/ocx/csp/internal/csp/version"
)

// UserProfile is a registered struct exercising strings, a slice, and a
// pointer in one body: the field-by-field path the fast path never
// touches. Version 1 lacked Tags; userProfileChain upgrades/downgrades
// between the two on the wire.
type UserProfile struct {
	Name        string
	Age         uint32
	Tags        []string
	HomeAddress *Address
}

var userProfileID = context.StructID{0x55, 0x53, 0x45, 0x52, 0x50, 0x52, 0x4F, 0x46}

func (UserProfile) StructID() context.StructID            { return userProfileID }
func (UserProfile) LatestVersion() uint32                 { return 2 }
func (UserProfile) MinSupportedVersion() uint32            { return 1 }
func (UserProfile) MandatoryDataFlags() context.DataFlags { return 0 }
func (UserProfile) ForbiddenDataFlags() context.DataFlags { return 0 }
func (UserProfile) Category() body.LayoutCategory         { return body.NotSimplyAssignable }

func (p *UserProfile) SerializeFields(w io.Writer, ctx *context.DataContext) status.Status {
	if st := primitive.WriteString(w, p.Name); st != status.NoError {
		return st
	}
	if st := primitive.WriteFixed(w, p.Age, ctx.Common.CommonFlags.EndiannessNotMatch()); st != status.NoError {
		return st
	}
	if st := body.WriteSlice(w, p.Tags, ctx, serializeTag); st != status.NoError {
		return st
	}
	return body.WritePointer(w, p.HomeAddress, ctx, serializeAddress)
}

func (p *UserProfile) DeserializeFields(r io.Reader, ctx *context.DataContext) status.Status {
	name, st := primitive.ReadString(r)
	if st != status.NoError {
		return st
	}
	p.Name = name
	if st := primitive.ReadFixed(r, &p.Age, ctx.Common.CommonFlags.EndiannessNotMatch()); st != status.NoError {
		return st
	}
	tags, st := body.ReadSlice(r, ctx, deserializeTag)
	if st != status.NoError {
		return st
	}
	p.Tags = tags
	addr, st := body.ReadPointer(r, ctx, deserializeAddress)
	if st != status.NoError {
		return st
	}
	p.HomeAddress = addr
	return status.NoError
}

func serializeTag(s string, _ *context.DataContext, w io.Writer) status.Status {
	return primitive.WriteString(w, s)
}

func deserializeTag(_ *context.DataContext, r io.Reader) (string, status.Status) {
	return primitive.ReadString(r)
}

// userProfileChain declares the version-1 representation of UserProfile,
// which had no Tags field. Mirrors the shape of the reference
// implementation's ConvertToOldStruct.cpp/ConvertFromOldStruct.cpp
// generated pair for a struct that grew a field.
func (p *UserProfile) userProfileChain() version.Chain {
	return version.Chain{Steps: []version.Step{
		{
			Version: 1,
			SerializeOld: func(ctx *context.DataContext, w io.Writer) status.Status {
				if st := primitive.WriteString(w, p.Name); st != status.NoError {
					return st
				}
				if st := primitive.WriteFixed(w, p.Age, ctx.Common.CommonFlags.EndiannessNotMatch()); st != status.NoError {
					return st
				}
				return body.WritePointer(w, p.HomeAddress, ctx, serializeAddress)
			},
			DeserializeOld: func(ctx *context.DataContext, r io.Reader) status.Status {
				name, st := primitive.ReadString(r)
				if st != status.NoError {
					return st
				}
				p.Name = name
				if st := primitive.ReadFixed(r, &p.Age, ctx.Common.CommonFlags.EndiannessNotMatch()); st != status.NoError {
					return st
				}
				addr, st := body.ReadPointer(r, ctx, deserializeAddress)
				if st != status.NoError {
					return st
				}
				p.HomeAddress = addr
				p.Tags = nil
				return status.NoError
			},
		},
	}}
}

// ConvertToOld implements body.VersionConvertible for peers declaring an
// older interface version on read.
func (p *UserProfile) ConvertToOld(ctx *context.DataContext, w io.Writer) status.Status {
	return p.userProfileChain().ConvertToOld(ctx.Header.InterfaceVersion, ctx, w)
}

// ConvertFromOld implements body.VersionConvertible for a wire payload
// declaring an older interface version than this binary's latest.
func (p *UserProfile) ConvertFromOld(ctx *context.DataContext, r io.Reader) status.Status {
	return p.userProfileChain().ConvertFromOld(ctx.Header.InterfaceVersion, ctx, r)
}
