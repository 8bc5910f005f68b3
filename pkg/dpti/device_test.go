package dpti

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{"alias", "Genesys2", false},
		{"serial", "SN:210328A6B2E1", false},
		{"max length", strings.Repeat("x", MaxNameLen), false},
		{"empty", "", true},
		{"looks like flag", "-p", true},
		{"too long", strings.Repeat("x", MaxNameLen+1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.in)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateName(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
		})
	}
}

func TestProperties(t *testing.T) {
	assert.True(t, PropAsynchronous.Asynchronous())
	assert.False(t, PropSynchronous.Asynchronous())
	assert.Equal(t, "asynchronous", PropAsynchronous.String())
	assert.Equal(t, "synchronous", PropSynchronous.String())
}

func TestErrorMatching(t *testing.T) {
	timeout := &Error{Op: "DptiIO", Device: "Nexys", Code: ercTransferCancelled}
	assert.True(t, errors.Is(timeout, ErrTimeout))
	assert.False(t, errors.Is(timeout, ErrNotAvailable))
	assert.Contains(t, timeout.Error(), `DptiIO "Nexys"`)
	assert.Contains(t, timeout.Error(), "transfer cancelled")

	generic := &Error{Op: "DptiEnableEx", Code: 1}
	assert.False(t, errors.Is(generic, ErrTimeout))
	assert.Equal(t, "dpti: DptiEnableEx: erc = 1", generic.Error())
}

func TestPortRangeError(t *testing.T) {
	err := &PortRangeError{Port: 3, Count: 2}
	assert.Equal(t, "dpti: invalid DPTI port specified: 3 (device supports ports 0-1)", err.Error())
}

func TestOpenRejectsBadName(t *testing.T) {
	_, err := Open(strings.Repeat("n", MaxNameLen+1))
	assert.Error(t, err)
}

func TestDiscoverIncludesSimulators(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping USB enumeration in short mode")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	infos, err := Discover(ctx)
	if err != nil {
		t.Skipf("USB enumeration unavailable: %v", err)
	}

	var sims int
	for _, info := range infos {
		t.Logf("  %s [%s] name=%q", info.Label(), info.Kind, info.Name)
		if info.Kind == DeviceKindSim {
			sims++
		}
	}
	assert.Equal(t, len(SimDeviceNames), sims)
}
