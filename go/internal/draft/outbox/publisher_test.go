package outbox

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcdev12/livedraft/go/internal/natsutil"
)

type PublisherSuite struct {
	suite.Suite
	nc   *nats.Conn
	js   jetstream.JetStream
	cfg  JetStreamConfig
	pub  *JetStreamPublisher
	stop func()
}

func TestPublisherSuite(t *testing.T) {
	suite.Run(t, new(PublisherSuite))
}

func (s *PublisherSuite) SetupTest() {
	ns, err := natsutil.StartEmbedded(natsutil.EmbeddedOptions{Port: -1, StoreDir: s.T().TempDir()})
	s.Require().NoError(err)

	s.cfg = DefaultJetStreamConfig()
	s.cfg.URL = ns.ClientURL()
	s.cfg.StreamName = "TEST_EVENTS"

	nc, err := Connect(s.cfg)
	s.Require().NoError(err)
	js, err := jetstream.New(nc)
	s.Require().NoError(err)

	pub, err := NewJetStreamPublisher(context.Background(), nc, s.cfg)
	s.Require().NoError(err)
	pub.now = func() time.Time { return time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC) }

	s.nc, s.js, s.pub = nc, js, pub
	s.stop = func() {
		nc.Close()
		ns.Shutdown()
		ns.WaitForShutdown()
	}
}

func (s *PublisherSuite) TearDownTest() {
	s.stop()
}

func (s *PublisherSuite) TestPublishWrapsEnvelope() {
	t := s.T()
	ctx := context.Background()
	event := OutboxEvent{
		ID:        uuid.New(),
		DraftID:   uuid.New(),
		EventType: "PickMade",
		Payload:   json.RawMessage(`{"overall":4}`),
	}
	require.NoError(t, s.pub.Publish(ctx, event))

	stream, err := s.js.Stream(ctx, s.cfg.StreamName)
	require.NoError(t, err)
	msg, err := stream.GetLastMsgForSubject(ctx, "draft.events.PickMade")
	require.NoError(t, err)

	assert.Equal(t, event.ID.String(), msg.Header.Get("Event-ID"))
	assert.Equal(t, event.DraftID.String(), msg.Header.Get("Draft-ID"))

	var env Envelope
	require.NoError(t, json.Unmarshal(msg.Data, &env))
	assert.Equal(t, event.ID.String(), env.EventID)
	assert.Equal(t, "PickMade", env.EventType)
	assert.Equal(t, event.DraftID.String(), env.DraftID)
	assert.JSONEq(t, `{"overall":4}`, string(env.Payload))
	assert.True(t, env.Timestamp.Equal(time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)))
}

func (s *PublisherSuite) TestRepublishIsDeduplicated() {
	t := s.T()
	ctx := context.Background()
	event := OutboxEvent{ID: uuid.New(), DraftID: uuid.New(), EventType: "DraftStarted", Payload: json.RawMessage(`{}`)}

	require.NoError(t, s.pub.Publish(ctx, event))
	require.NoError(t, s.pub.Publish(ctx, event))

	stream, err := s.js.Stream(ctx, s.cfg.StreamName)
	require.NoError(t, err)
	info, err := stream.Info(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, info.State.Msgs)
}

func (s *PublisherSuite) TestEnsureStreamIsIdempotent() {
	t := s.T()
	ctx := context.Background()
	require.NoError(t, EnsureStream(ctx, s.js, s.cfg))

	changed := s.cfg
	changed.MaxAge = time.Hour
	require.NoError(t, EnsureStream(ctx, s.js, changed))

	stream, err := s.js.Stream(ctx, s.cfg.StreamName)
	require.NoError(t, err)
	info, err := stream.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, info.Config.MaxAge)
	assert.Equal(t, time.Hour, info.Config.Duplicates)

	require.NoError(t, EnsureStream(ctx, s.js, changed))
}

func (s *PublisherSuite) TestEnsureStreamKeepsShorterDuplicateWindow() {
	t := s.T()
	ctx := context.Background()

	changed := s.cfg
	changed.MaxAge = time.Hour
	changed.DuplicateWindow = 10 * time.Minute
	require.NoError(t, EnsureStream(ctx, s.js, changed))

	stream, err := s.js.Stream(ctx, s.cfg.StreamName)
	require.NoError(t, err)
	info, err := stream.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, info.Config.Duplicates)
}
