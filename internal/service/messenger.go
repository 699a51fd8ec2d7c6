package service

// Messenger abstracts the channel send/edit operations services need, keeping
// the chat client out of this package. The discord session implements it;
// tests substitute a fake.
type Messenger interface {
	SendChannelMessage(channelID, content string) (messageID string, err error)
	EditChannelMessage(channelID, messageID, content string) error
}
