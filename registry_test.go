package rebrander_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	rebrander "github.com/thrawn01/rebrander"
)

func TestRegistryValidation(t *testing.T) {
	valid := []rebrander.Mapping{
		{Old: "com.carriez.flutter_hbb", New: "com.celonis.work", Kind: rebrander.KindPackage},
		{Old: "RustDesk", New: "ToddDesk", Kind: rebrander.KindAppName},
		{Old: "rustdesk", New: "todddesk", Kind: rebrander.KindScheme},
		{Old: "InputService", New: "ToddService", Kind: rebrander.KindServiceClass},
	}

	tests := []struct {
		name     string
		mappings []rebrander.Mapping
		wantErr  bool
	}{
		{
			name:     "ValidSet",
			mappings: valid,
		},
		{
			name:     "EmptySet",
			mappings: nil,
			wantErr:  true,
		},
		{
			name: "EmptyOldValue",
			mappings: []rebrander.Mapping{
				{Old: "", New: "ToddDesk", Kind: rebrander.KindAppName},
			},
			wantErr: true,
		},
		{
			name: "EmptyNewValue",
			mappings: []rebrander.Mapping{
				{Old: "RustDesk", New: "", Kind: rebrander.KindAppName},
			},
			wantErr: true,
		},
		{
			name: "DuplicateOldValue",
			mappings: []rebrander.Mapping{
				{Old: "RustDesk", New: "ToddDesk", Kind: rebrander.KindAppName},
				{Old: "RustDesk", New: "Other", Kind: rebrander.KindDescription},
			},
			wantErr: true,
		},
		{
			name: "OldValueSubstringOfDifferentKind",
			mappings: []rebrander.Mapping{
				{Old: "rust", New: "todd", Kind: rebrander.KindScheme},
				{Old: "rustdesk", New: "todddesk", Kind: rebrander.KindAppName},
			},
			wantErr: true,
		},
		{
			name: "NewValueEqualsAnotherOldValue",
			mappings: []rebrander.Mapping{
				{Old: "alpha", New: "beta", Kind: rebrander.KindAppName},
				{Old: "beta", New: "gamma", Kind: rebrander.KindScheme},
			},
			wantErr: true,
		},
		{
			name: "PackageWithSingleSegment",
			mappings: []rebrander.Mapping{
				{Old: "flutterhbb", New: "com.celonis.work", Kind: rebrander.KindPackage},
			},
			wantErr: true,
		},
		{
			name: "PackageWithEmptySegment",
			mappings: []rebrander.Mapping{
				{Old: "com..carriez", New: "com.celonis.work", Kind: rebrander.KindPackage},
			},
			wantErr: true,
		},
		{
			name: "NewPackageWithPathSeparator",
			mappings: []rebrander.Mapping{
				{Old: "com.carriez.flutter_hbb", New: "com/celonis", Kind: rebrander.KindPackage},
			},
			wantErr: true,
		},
		{
			name: "NewPackageWithFewerSegmentsAllowed",
			mappings: []rebrander.Mapping{
				{Old: "com.carriez.flutter_hbb", New: "work", Kind: rebrander.KindPackage},
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := rebrander.NewRegistry(test.mappings)
			if test.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, rebrander.ErrInvalidMapping))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestRegistryOrdering(t *testing.T) {
	registry, err := rebrander.NewRegistry([]rebrander.Mapping{
		{Old: "com.a", New: "x", Kind: rebrander.KindPackage},
		{Old: "com.a.b", New: "x.y", Kind: rebrander.KindPackage},
		{Old: "InputService", New: "ToddService", Kind: rebrander.KindServiceClass},
	})
	require.NoError(t, err)

	mappings := registry.Mappings()
	require.Len(t, mappings, 3)

	// Longest old value first so a longer dotted prefix always wins
	// over a shorter one that is its prefix.
	assert.Equal(t, "InputService", mappings[0].Old)
	assert.Equal(t, "com.a.b", mappings[1].Old)
	assert.Equal(t, "com.a", mappings[2].Old)
}

func TestRegistryLookup(t *testing.T) {
	registry, err := rebrander.NewRegistry([]rebrander.Mapping{
		{Old: "com.carriez.flutter_hbb", New: "com.celonis.work", Kind: rebrander.KindPackage},
		{Old: "InputService", New: "ToddService", Kind: rebrander.KindServiceClass},
	})
	require.NoError(t, err)

	pkg, ok := registry.Lookup(rebrander.KindPackage)
	require.True(t, ok)
	assert.Equal(t, "com.celonis.work", pkg.New)

	_, ok = registry.Lookup(rebrander.KindScheme)
	assert.False(t, ok)
}
