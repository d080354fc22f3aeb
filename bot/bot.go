package bot

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/dashwav/yinbot/database"
	"github.com/dashwav/yinbot/discord"
	"github.com/dashwav/yinbot/kvstore"
	"github.com/dashwav/yinbot/owo"
)

type Bot struct {
	db        database.ServerDB
	store     *kvstore.Store
	disc      *discord.Discord
	sess      *discordgo.Session
	log       *zap.Logger
	config    *Config
	owo       *owo.Client
	startTime time.Time

	// set by the first ready event; reconnects and later shards must not
	// start another status loop
	statusStarted atomic.Bool

	mu sync.RWMutex
	// advisory copy of the stored prefixes, keyed by guild ID. Must be
	// updated after every successful SetPrefix.
	prefixes map[string]string
}

type Config struct {
	DB    database.ServerDB
	Store *kvstore.Store
	Log   *zap.Logger
	Owo   *owo.Client
	Token string
}

func NewBot(c *Config) (*Bot, error) {
	b := &Bot{
		db:        c.DB,
		store:     c.Store,
		log:       c.Log,
		config:    c,
		owo:       c.Owo,
		startTime: time.Now(),
		prefixes:  make(map[string]string),
	}

	disc, err := discord.NewDiscord(c.Token, c.Log.Named("discord"))
	if err != nil {
		return nil, err
	}
	b.disc = disc
	b.sess = disc.Sess

	return b, nil
}

func (b *Bot) Close() {
	b.disc.Close()
}

// Run warms the prefix cache, starts the event loop and opens the gateway
// sessions.
func (b *Bot) Run(ctx context.Context) error {
	prefixes, err := b.db.GetServerPrefixes(ctx)
	if err != nil {
		return err
	}
	b.mu.Lock()
	for id, p := range prefixes {
		b.prefixes[strconv.FormatInt(id, 10)] = p
	}
	b.mu.Unlock()

	go b.listen(ctx, b.disc.Events)
	return b.disc.Open()
}

func (b *Bot) listen(ctx context.Context, evtCh <-chan interface{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-evtCh:
			c := &Context{b: b, s: b.sess, ctx: ctx}
			switch e := evt.(type) {
			case *discordgo.Ready:
				go readyHandler(c, e)
			case *discordgo.Disconnect:
				go disconnectHandler(c, e)
			case *discordgo.GuildCreate:
				go guildCreateHandler(c, e)
			case *discordgo.GuildMembersChunk:
				go guildMembersChunkHandler(c, e)
			case *discordgo.GuildMemberAdd:
				go guildMemberAddHandler(c, e)
			case *discordgo.GuildMemberUpdate:
				go guildMemberUpdateHandler(c, e)
			case *discordgo.GuildMemberRemove:
				go guildMemberRemoveHandler(c, e)
			case *discordgo.GuildBanAdd:
				go guildBanAddHandler(c, e)
			case *discordgo.GuildBanRemove:
				go guildBanRemoveHandler(c, e)
			case *discordgo.MessageCreate:
				go messageCreateHandler(c, e)
			case *discordgo.MessageUpdate:
				go messageUpdateHandler(c, e)
			case *discordgo.MessageDelete:
				go messageDeleteHandler(c, e)
			case *discordgo.MessageDeleteBulk:
				go messageDeleteBulkHandler(c, e)
			}
		}
	}
}

// rotateStatus cycles the presence text until ctx is canceled.
func (b *Bot) rotateStatus(ctx context.Context, s *discordgo.Session) {
	t := time.NewTicker(time.Second * 15)
	defer t.Stop()

	i := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			switch i {
			case 0:
				_ = s.UpdateGameStatus(0, "-help")
			case 1:
				_ = s.UpdateListeningStatus("your commands")
			}
			i = (i + 1) % 2
		}
	}
}

func (b *Bot) prefixFor(gid string) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if p, ok := b.prefixes[gid]; ok && p != "" {
		return p
	}
	return database.DefaultPrefix
}

func (b *Bot) setCachedPrefix(gid, prefix string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.prefixes[gid] = prefix
}
