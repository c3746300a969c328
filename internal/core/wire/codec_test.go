package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/dep2p/go-locator/pkg/types"
)

// TestRequest_RoundTrip 测试请求编解码
func TestRequest_RoundTrip(t *testing.T) {
	req := &Request{
		Kind:      types.QueryFindObjectByID,
		DomainID:  "lab",
		Identity:  types.Identity{Category: "cat", Name: "hello"},
		Facet:     "admin",
		ReplyID:   "0f8fad5b-d9cb-469f-a165-70867728950e",
		ReplyAddr: "192.168.1.10:50123",
	}

	b, err := EncodeRequest(req)
	require.NoError(t, err)

	msg, err := Decode(b)
	require.NoError(t, err)
	require.NotNil(t, msg.Request)
	assert.Nil(t, msg.Reply)
	assert.Equal(t, req, msg.Request)
}

// TestReply_ReplicaGroup 测试副本组应答携带代理端点与标志
func TestReply_ReplicaGroup(t *testing.T) {
	reply := types.NewAdapterFound("G", &types.Proxy{
		AdapterID: "G",
		Endpoints: []types.Endpoint{
			types.MustParseEndpoint("tcp:10.0.0.1:5000"),
			types.MustParseEndpoint("udp:[::1]:4061"),
		},
	}, true)
	reply.ReplyID = "r1"

	b, err := EncodeReply(reply)
	require.NoError(t, err)

	msg, err := Decode(b)
	require.NoError(t, err)
	require.NotNil(t, msg.Reply)
	assert.Equal(t, reply, msg.Reply)
	assert.True(t, msg.Reply.HasPayload())
}

// TestReply_Location 测试位置应答端点列表
func TestReply_Location(t *testing.T) {
	reply := types.NewLocationFound([]types.Endpoint{types.MustParseEndpoint("udp:host:4061")}, false)

	b, err := EncodeReply(reply)
	require.NoError(t, err)

	msg, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, types.ReplyLocationFound, msg.Reply.Kind)
	assert.Equal(t, reply.Endpoints, msg.Reply.Endpoints)
	assert.False(t, msg.Reply.IsReplicaGroup)
}

// TestDecode_UnknownFieldsSkipped 测试跳过未知字段
func TestDecode_UnknownFieldsSkipped(t *testing.T) {
	b, err := EncodeReply(types.NewWellKnownFound("A"))
	require.NoError(t, err)

	b = protowire.AppendTag(b, 99, protowire.Fixed32Type)
	b = protowire.AppendFixed32(b, 7)
	b = protowire.AppendTag(b, 100, protowire.BytesType)
	b = protowire.AppendString(b, "future")

	msg, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, "A", msg.Reply.AdapterID)
}

// TestDecode_Errors 测试非法数据报
func TestDecode_Errors(t *testing.T) {
	t.Run("wrong version", func(t *testing.T) {
		var b []byte
		b = protowire.AppendTag(b, envVersion, protowire.VarintType)
		b = protowire.AppendVarint(b, 2)
		b = protowire.AppendTag(b, envReply, protowire.BytesType)
		b = protowire.AppendBytes(b, nil)

		_, err := Decode(b)
		assert.ErrorIs(t, err, ErrUnsupportedVersion)
	})

	t.Run("empty", func(t *testing.T) {
		var b []byte
		b = protowire.AppendTag(b, envVersion, protowire.VarintType)
		b = protowire.AppendVarint(b, Version)

		_, err := Decode(b)
		assert.ErrorIs(t, err, ErrEmptyMessage)
	})

	t.Run("truncated", func(t *testing.T) {
		b, err := EncodeRequest(&Request{Kind: types.QueryFindAdapterByID, AdapterID: "A"})
		require.NoError(t, err)

		_, err = Decode(b[:len(b)-1])
		assert.Error(t, err)
	})

	t.Run("bad endpoint", func(t *testing.T) {
		var body []byte
		body = protowire.AppendTag(body, repEndpoint, protowire.BytesType)
		body = protowire.AppendString(body, "nonsense")
		b, err := envelope(envReply, body)
		require.NoError(t, err)

		_, err = Decode(b)
		assert.Error(t, err)
	})

	t.Run("kind out of range", func(t *testing.T) {
		var req []byte
		req = protowire.AppendTag(req, reqKind, protowire.VarintType)
		req = protowire.AppendVarint(req, 257)
		b, err := envelope(envRequest, req)
		require.NoError(t, err)

		_, err = Decode(b)
		assert.ErrorIs(t, err, ErrInvalidKind)

		var rep []byte
		rep = protowire.AppendTag(rep, repKind, protowire.VarintType)
		rep = protowire.AppendVarint(rep, 1<<40)
		b, err = envelope(envReply, rep)
		require.NoError(t, err)

		_, err = Decode(b)
		assert.ErrorIs(t, err, ErrInvalidKind)
	})

	t.Run("too large", func(t *testing.T) {
		_, err := Decode(make([]byte, MaxDatagramSize+1))
		assert.ErrorIs(t, err, ErrTooLarge)
	})
}
