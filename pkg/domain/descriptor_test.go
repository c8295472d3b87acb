package domain_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/aretw0/contentgraph/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey_ParseRoundTrip(t *testing.T) {
	key := domain.NewKey("tableau", "view", "wb-1", "v-1")
	assert.Equal(t, "tableau/view/wb-1/v-1", key.String())

	parsed, err := domain.ParseKey(key.String())
	require.NoError(t, err)
	assert.True(t, key.Equal(parsed))

	_, err = domain.ParseKey("")
	assert.Error(t, err)
	_, err = domain.ParseKey("a//b")
	assert.Error(t, err)
}

func TestDescriptor_JSONKeysAreStrings(t *testing.T) {
	d := domain.Descriptor{
		Key:  domain.NewKey("tableau", "view", "wb", "v"),
		Kind: domain.ContentTypeItem,
		Deps: []domain.Key{domain.NewKey("tableau", "data_source", "ds")},
	}

	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"key":"tableau/view/wb/v"`)
	assert.Contains(t, string(data), `"deps":["tableau/data_source/ds"]`)

	var back domain.Descriptor
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, back.Key.Equal(d.Key))
	assert.True(t, back.DependsOn(domain.NewKey("tableau", "data_source", "ds")))
}

func TestDescriptor_CloneIsolation(t *testing.T) {
	d := domain.Descriptor{
		Key:        domain.NewKey("a", "b"),
		Deps:       []domain.Key{domain.NewKey("c")},
		Properties: map[string]any{"name": "x"},
		Tags:       map[string]string{"storage_kind": "tableau"},
	}
	c := d.Clone()
	c.Key[0] = "z"
	c.Deps[0][0] = "z"
	c.Properties["name"] = "y"
	c.Tags["storage_kind"] = "other"

	assert.Equal(t, "a/b", d.Key.String())
	assert.Equal(t, "c", d.Deps[0].String())
	assert.Equal(t, "x", d.Properties["name"])
	assert.Equal(t, "tableau", d.Tags["storage_kind"])
}

func TestErrors_Classification(t *testing.T) {
	cause := errors.New("boom")

	var err error = &domain.AuthenticationError{Op: "signin", Err: cause}
	assert.ErrorIs(t, err, domain.ErrAuthentication)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, domain.ErrRemoteAPI)

	err = &domain.RemoteAPIError{Op: "list", Method: "GET", URL: "http://x", StatusCode: 500, Body: "oops"}
	assert.ErrorIs(t, err, domain.ErrRemoteAPI)
	assert.Contains(t, err.Error(), "status 500")

	err = &domain.TranslationError{Kind: domain.ContentTypeItem, ID: "v", Field: "name", Reason: "missing"}
	assert.ErrorIs(t, err, domain.ErrTranslation)
	var te *domain.TranslationError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "name", te.Field)
}
