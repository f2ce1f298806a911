package testsupport

import (
	"context"
	"sync"

	"reelpipe/internal/approval"
)

// Image is one recorded NotifyWithImage call.
type Image struct {
	Path    string
	Caption string
}

// Notifier records outgoing messages and replays scripted chat updates.
// Each Poll call returns the next batch in Batches; once exhausted Poll
// returns nothing.
type Notifier struct {
	mu       sync.Mutex
	Messages []string
	Images   []Image
	Batches  [][]approval.Update
	polls    int

	// ImageErr, when set, fails every NotifyWithImage call.
	ImageErr error
	// OnPoll runs before each Poll returns, with the zero-based poll index.
	OnPoll func(n int)
}

// Notify records text.
func (n *Notifier) Notify(_ context.Context, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Messages = append(n.Messages, text)
	return nil
}

// NotifyWithImage records the image and caption.
func (n *Notifier) NotifyWithImage(_ context.Context, path, caption string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.ImageErr != nil {
		return n.ImageErr
	}
	n.Images = append(n.Images, Image{Path: path, Caption: caption})
	return nil
}

// Poll returns the next scripted batch.
func (n *Notifier) Poll(context.Context) ([]approval.Update, error) {
	n.mu.Lock()
	idx := n.polls
	n.polls++
	var batch []approval.Update
	if idx < len(n.Batches) {
		batch = n.Batches[idx]
	}
	hook := n.OnPoll
	n.mu.Unlock()
	if hook != nil {
		hook(idx)
	}
	return batch, nil
}

// TestNotification records the test message marker.
func (n *Notifier) TestNotification(ctx context.Context) error {
	return n.Notify(ctx, "test")
}

// Sent returns a copy of the recorded text messages.
func (n *Notifier) Sent() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.Messages...)
}
