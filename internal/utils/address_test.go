// internal/utils/address_test.go
package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidAddress(t *testing.T) {
	assert.True(t, IsValidAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"))
	assert.True(t, IsValidAddress("0x0000000000000000000000000000000000000000"))
	assert.False(t, IsValidAddress("5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"))
	assert.False(t, IsValidAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAe"))
	assert.False(t, IsValidAddress("0xZZAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"))
	assert.False(t, IsValidAddress(""))
}

func TestChecksumAddress(t *testing.T) {
	for _, want := range []string{
		"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		"0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359",
		"0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB",
	} {
		assert.Equal(t, want, ChecksumAddress(NormalizeAddress(want)))
	}
}

func TestEventTopic(t *testing.T) {
	assert.Equal(t,
		"0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef",
		EventTopic("Transfer(address,address,uint256)"))
}

func TestAddressTopicRoundTrip(t *testing.T) {
	address := "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"
	topic := PadAddressTopic("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")

	assert.Len(t, topic, 66)
	assert.Equal(t, "0x000000000000000000000000"+address[2:], topic)
	assert.Equal(t, address, TopicToAddress(topic))
	assert.Empty(t, TopicToAddress("0x1234"))
}

func TestNormalizeOptionalAddress(t *testing.T) {
	assert.Nil(t, NormalizeOptionalAddress(nil))

	mixed := " 0xABCDEF0123456789ABCDEF0123456789ABCDEF01 "
	assert.Equal(t, "0xabcdef0123456789abcdef0123456789abcdef01", *NormalizeOptionalAddress(&mixed))
}
