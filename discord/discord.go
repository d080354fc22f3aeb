package discord

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Discord wraps one gateway session per shard and fans every event into a
// single channel for the bot to consume.
type Discord struct {
	token    string
	Sess     *discordgo.Session
	sessions []*discordgo.Session
	log      *zap.Logger

	Events chan interface{}
}

func NewDiscord(token string, log *zap.Logger) (*Discord, error) {
	d := &Discord{
		token:  token,
		log:    log,
		Events: make(chan interface{}, 256),
	}

	shardCount, err := recommendedShards(d.token)
	if err != nil {
		return nil, fmt.Errorf("failed to get recommended shard count: %w", err)
	}

	for i := 0; i < shardCount; i++ {
		s, err := discordgo.New("Bot " + d.token)
		if err != nil {
			return nil, err
		}

		s.State.TrackVoice = false
		s.State.TrackPresences = false
		s.ShardCount = shardCount
		s.ShardID = i
		s.Identify.Intents = discordgo.MakeIntent(discordgo.IntentsAllWithoutPrivileged | discordgo.IntentsGuildMembers | discordgo.IntentMessageContent)
		s.AddHandler(onEvent(d.Events))

		d.sessions = append(d.sessions, s)
		d.log.Info("created session", zap.Int("shard", i))
	}
	d.Sess = d.sessions[0]

	return d, nil
}

func onEvent(e chan interface{}) func(s *discordgo.Session, i interface{}) {
	return func(s *discordgo.Session, i interface{}) {
		e <- i
	}
}

// Open opens every shard session.
func (d *Discord) Open() error {
	for _, sess := range d.sessions {
		if err := sess.Open(); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every shard session.
func (d *Discord) Close() {
	for _, sess := range d.sessions {
		if err := sess.Close(); err != nil {
			d.log.Error("failed to close discord session", zap.Int("shard", sess.ShardID), zap.Error(err))
		}
	}
}

func recommendedShards(token string) (int, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return -1, err
	}

	gw, err := s.GatewayBot()
	if err != nil {
		return -1, err
	}
	return gw.Shards, nil
}
