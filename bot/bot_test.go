package bot

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestRotateStatusStopsOnShutdown(t *testing.T) {
	b := &Bot{log: zap.NewNop()}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		b.rotateStatus(ctx, &discordgo.Session{})
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("status rotation kept running after shutdown")
	}
}

func TestReadyStartsStatusRotationOnce(t *testing.T) {
	b := &Bot{log: zap.NewNop()}
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // any started loop exits immediately

	c := &Context{b: b, s: &discordgo.Session{}, ctx: ctx}
	r := &discordgo.Ready{User: &discordgo.User{Username: "yin"}}

	readyHandler(c, r)
	assert.True(t, b.statusStarted.Load())

	// a reconnect or another shard's ready must not claim the flag again
	assert.False(t, b.statusStarted.CompareAndSwap(false, true))
	readyHandler(c, r)
	assert.True(t, b.statusStarted.Load())
}
