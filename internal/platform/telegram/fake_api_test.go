package telegram

import (
	"context"
	"fmt"
	"sync"

	"github.com/gotd/td/bin"
	"github.com/gotd/td/tg"
)

// fakeAPI is a tg.Invoker answering the calls a session makes: dialog pages
// in order, file part uploads and media sends, which it records.
type fakeAPI struct {
	mu sync.Mutex

	dialogPages []tg.MessagesDialogsClass
	dialogErr   error
	dialogCalls int

	sendErr error
	sent    []*tg.MessagesSendMediaRequest
	nextID  int
}

func (f *fakeAPI) Invoke(_ context.Context, input bin.Encoder, output bin.Decoder) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch req := input.(type) {
	case *tg.MessagesGetDialogsRequest:
		f.dialogCalls++
		if f.dialogErr != nil {
			return f.dialogErr
		}
		box := output.(*tg.MessagesDialogsBox)
		if len(f.dialogPages) == 0 {
			box.Dialogs = &tg.MessagesDialogs{}
			return nil
		}
		box.Dialogs = f.dialogPages[0]
		f.dialogPages = f.dialogPages[1:]
		return nil

	case *tg.UploadSaveFilePartRequest:
		output.(*tg.BoolBox).Bool = &tg.BoolTrue{}
		return nil

	case *tg.MessagesSendMediaRequest:
		if f.sendErr != nil {
			return f.sendErr
		}
		f.sent = append(f.sent, req)
		f.nextID++
		output.(*tg.UpdatesBox).Updates = &tg.UpdateShortSentMessage{ID: f.nextID}
		return nil

	default:
		return fmt.Errorf("unexpected request %T", input)
	}
}

func (f *fakeAPI) sentMedia() []*tg.MessagesSendMediaRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*tg.MessagesSendMediaRequest(nil), f.sent...)
}

// channelDialogs builds one dialog per channel. A positive total makes the
// page a slice that asks for more.
func channelDialogs(total int, channels ...*tg.Channel) tg.MessagesDialogsClass {
	var (
		dialogs []tg.DialogClass
		chats   []tg.ChatClass
	)
	for _, ch := range channels {
		dialogs = append(dialogs, &tg.Dialog{Peer: &tg.PeerChannel{ChannelID: ch.ID}})
		chats = append(chats, ch)
	}
	if total > 0 {
		return &tg.MessagesDialogsSlice{Count: total, Dialogs: dialogs, Chats: chats}
	}
	return &tg.MessagesDialogs{Dialogs: dialogs, Chats: chats}
}
