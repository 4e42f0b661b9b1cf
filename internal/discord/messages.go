package discord

import "fmt"

// ackMessage is the immediate, requester-only acknowledgement sent at
// submission time.
func ackMessage(ahead int) string {
	switch {
	case ahead == 0:
		return "working on your clip now"
	case ahead == 1:
		return "you're in line, 1 clip ahead of you"
	default:
		return fmt.Sprintf("you're in line, %d clips ahead of you", ahead)
	}
}

// resultMessage is the public message posted to the originating channel
// once a clip is hosted.
func resultMessage(userID, publicURL string) string {
	return fmt.Sprintf("<@%s> sent a [clip](%s)", userID, publicURL)
}
