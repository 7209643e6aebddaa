package fleet_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grimm.is/wgfleet/internal/fleet"
)

func TestValidateCleanState(t *testing.T) {
	st := testState()
	addPeerAt(t, st, "phone", "10.8.0.2/32")

	assert.Empty(t, fleet.Validate(st))
}

func TestValidateCollectsEveryProblem(t *testing.T) {
	st := testState()
	st.Server.ListenPort = 0
	addPeerAt(t, st, "a", "10.8.0.2/32")
	addPeerAt(t, st, "b", "10.8.0.2/32")

	problems := fleet.Validate(st)
	require.Len(t, problems, 2, "bad port and duplicate ip must both be reported: %v", problems)

	joined := strings.Join(problems, "\n")
	assert.Contains(t, joined, "listen_port")
	assert.Contains(t, joined, "duplicate ip")
}

func TestValidateServerFields(t *testing.T) {
	st := fleet.NewState("10.8.0.0/24", fleet.Server{})

	problems := strings.Join(fleet.Validate(st), "\n")
	assert.Contains(t, problems, "server.interface")
	assert.Contains(t, problems, "server.private_key")
	assert.Contains(t, problems, "server.public_key")
	assert.Contains(t, problems, "server.address")
	assert.Contains(t, problems, "server.listen_port")
}

func TestValidatePeerOutsideNetwork(t *testing.T) {
	st := testState()
	addPeerAt(t, st, "stray", "192.168.50.7/32")

	problems := strings.Join(fleet.Validate(st), "\n")
	assert.Contains(t, problems, "outside network")
}

func TestValidatePeerCollidesWithServer(t *testing.T) {
	st := testState()
	addPeerAt(t, st, "clash", "10.8.0.1/32")

	problems := strings.Join(fleet.Validate(st), "\n")
	assert.Contains(t, problems, "collides with server")
}

func TestValidatePeerTraversalName(t *testing.T) {
	cases := []struct {
		name  string
		token string
	}{
		{"../evil", `"/"`},
		{`..\evil`, `"\\"`},
		{"a..b", `".."`},
	}
	for _, tc := range cases {
		st := testState()
		addPeerAt(t, st, tc.name, "10.8.0.2/32")

		problems := strings.Join(fleet.Validate(st), "\n")
		assert.Contains(t, problems, "must not contain", "name %q", tc.name)
		assert.Contains(t, problems, tc.token, "name %q", tc.name)
	}
}

func TestValidatePeerMissingKeys(t *testing.T) {
	st := testState()
	st.Peers["bare"] = &fleet.Peer{Name: "bare", IP: "10.8.0.2/32"}

	problems := strings.Join(fleet.Validate(st), "\n")
	assert.Contains(t, problems, "public_key")
	assert.Contains(t, problems, "private_key")
	assert.Contains(t, problems, "allowed_ips")
}

func TestValidateBadNetworkAndBadPeerIP(t *testing.T) {
	st := testState()
	st.NetworkCIDR = "garbage"
	addPeerAt(t, st, "p", "also-garbage")

	problems := strings.Join(fleet.Validate(st), "\n")
	assert.Contains(t, problems, "network_cidr invalid")
	assert.Contains(t, problems, "ip invalid")
}

func TestValidationErrorMessage(t *testing.T) {
	err := &fleet.ValidationError{Problems: []string{"first", "second"}}
	msg := err.Error()
	assert.Contains(t, msg, "refusing to apply")
	assert.Contains(t, msg, "- first")
	assert.Contains(t, msg, "- second")
}
