package model

import "time"

// PendingReferral is a bot-recorded claim that NewUserID was referred by
// ReferrerID before the referred user ever opened the Mini App. It is
// consumed at most once, during provisioning.
type PendingReferral struct {
	NewUserID  int64
	ReferrerID int64
	Processed  bool
	CreatedAt  time.Time
}
