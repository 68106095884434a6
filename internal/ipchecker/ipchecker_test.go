package ipchecker

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsMalformedCIDR(t *testing.T) {
	_, err := New("not-a-cidr")
	require.Error(t, err)
}

func TestEmptySubnetDisablesChecker(t *testing.T) {
	checker, err := New("")
	require.NoError(t, err)

	assert.True(t, checker.IsTrustedSubnetEmpty())
	assert.False(t, checker.Check(net.ParseIP("10.0.0.1")))
}

func TestCheck(t *testing.T) {
	checker, err := New("10.0.0.0/8")
	require.NoError(t, err)

	assert.False(t, checker.IsTrustedSubnetEmpty())
	assert.True(t, checker.Check(net.ParseIP("10.1.2.3")))
	assert.False(t, checker.Check(net.ParseIP("192.168.1.1")))
}

func TestGetClientIP(t *testing.T) {
	checker, err := New("10.0.0.0/8")
	require.NoError(t, err)

	testCases := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		expected   string
	}{
		{
			name:       "X-Real-IP_wins",
			headers:    map[string]string{"X-Real-IP": "10.1.1.1", "X-Forwarded-For": "10.2.2.2"},
			remoteAddr: "10.3.3.3:1234",
			expected:   "10.1.1.1",
		},
		{
			name:       "first_X-Forwarded-For_entry",
			headers:    map[string]string{"X-Forwarded-For": "10.2.2.2, 10.4.4.4"},
			remoteAddr: "10.3.3.3:1234",
			expected:   "10.2.2.2",
		},
		{
			name:       "falls_back_to_RemoteAddr",
			remoteAddr: "10.3.3.3:1234",
			expected:   "10.3.3.3",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodGet, "/", nil)
			request.RemoteAddr = testCase.remoteAddr
			for name, value := range testCase.headers {
				request.Header.Set(name, value)
			}

			ip, err := checker.GetClientIP(request)
			require.NoError(t, err)
			assert.Equal(t, testCase.expected, ip.String())
		})
	}
}
