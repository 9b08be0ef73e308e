package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "fedgate/pkg/domain-errors"
)

func TestExtractDirect(t *testing.T) {
	e := NewExtractor(AttributeMapping{})

	t.Run("uid and password pass through", func(t *testing.T) {
		id, hint, err := e.Extract(LoginAttempt{Source: SourceDirect, UID: "alice", Password: "pw"})
		require.NoError(t, err)
		assert.Equal(t, "alice", id.UID)
		assert.Equal(t, "pw", id.Password)
		assert.Empty(t, hint)
	})

	t.Run("empty password is permitted", func(t *testing.T) {
		id, _, err := e.Extract(LoginAttempt{Source: SourceDirect, UID: "alice"})
		require.NoError(t, err)
		assert.Equal(t, "", id.Password)
	})

	t.Run("missing uid is a caller error", func(t *testing.T) {
		_, _, err := e.Extract(LoginAttempt{Source: SourceDirect})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}

func TestExtractFederated(t *testing.T) {
	mapping := AttributeMapping{UID: "urn:oid:uid", Location: "urn:oid:homeHost"}
	e := NewExtractor(mapping)

	attrs := map[string][]string{
		"urn:oid:uid":      {"bob"},
		"urn:oid:homeHost": {"node7.example.org"},
		"urn:oid:rawOther": {"never-forwarded"},
	}

	t.Run("uid and hint from mapped attributes", func(t *testing.T) {
		id, hint, err := e.Extract(LoginAttempt{Source: SourceFederated, Attributes: attrs})
		require.NoError(t, err)
		assert.Equal(t, "bob", id.UID)
		assert.Equal(t, "", id.Password, "federated attempts carry no local password")
		assert.Equal(t, "node7.example.org", hint)
	})

	t.Run("raw attributes never leave the extractor", func(t *testing.T) {
		id, _, err := e.Extract(LoginAttempt{Source: SourceFederated, Attributes: attrs})
		require.NoError(t, err)
		for _, v := range id.Extra {
			assert.NotEqual(t, "never-forwarded", v)
		}
	})

	t.Run("pre-formatted uid wins over attributes", func(t *testing.T) {
		id, _, err := e.Extract(LoginAttempt{Source: SourceFederated, UID: "formatted-bob", Attributes: attrs})
		require.NoError(t, err)
		assert.Equal(t, "formatted-bob", id.UID)
	})

	t.Run("missing location attribute yields empty hint", func(t *testing.T) {
		_, hint, err := e.Extract(LoginAttempt{
			Source:     SourceFederated,
			Attributes: map[string][]string{"urn:oid:uid": {"bob"}},
		})
		require.NoError(t, err)
		assert.Empty(t, hint)
	})

	t.Run("empty mapping yields empty hint", func(t *testing.T) {
		unmapped := NewExtractor(AttributeMapping{UID: "urn:oid:uid"})
		_, hint, err := unmapped.Extract(LoginAttempt{Source: SourceFederated, Attributes: attrs})
		require.NoError(t, err)
		assert.Empty(t, hint)
	})

	t.Run("no resolvable uid is a caller error", func(t *testing.T) {
		_, _, err := e.Extract(LoginAttempt{Source: SourceFederated, Attributes: map[string][]string{}})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}
