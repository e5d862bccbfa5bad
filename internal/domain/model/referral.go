package model

import (
	"fmt"
	"strconv"
	"strings"
)

const ReferralPrefix = "ref"

// ReferralCode renders the start payload that credits referrerID.
func ReferralCode(referrerID int64) string {
	return ReferralPrefix + strconv.FormatInt(referrerID, 10)
}

// ReferralLink builds the deep link shared by users to invite others.
func ReferralLink(botUsername string, referrerID int64) string {
	return fmt.Sprintf("https://t.me/%s?start=%s", strings.TrimPrefix(botUsername, "@"), ReferralCode(referrerID))
}

// ParseReferralCode extracts the referrer id from a "ref<id>" payload.
func ParseReferralCode(code string) (int64, bool) {
	code = strings.TrimSpace(code)
	if !strings.HasPrefix(code, ReferralPrefix) {
		return 0, false
	}
	id, err := strconv.ParseInt(code[len(ReferralPrefix):], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// NormalizeChannel turns user input like "name", "@name" or a t.me link into
// the "@name" form accepted by getChatMember. Numeric chat ids are kept as is.
func NormalizeChannel(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	for _, p := range []string{"https://t.me/", "http://t.me/", "t.me/"} {
		s = strings.TrimPrefix(s, p)
	}
	s = strings.TrimSuffix(s, "/")
	if s == "" || strings.ContainsAny(s, " \t\n/?") {
		return "", false
	}
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		return s, true
	}
	if !strings.HasPrefix(s, "@") {
		s = "@" + s
	}
	if len(s) < 2 {
		return "", false
	}
	return s, true
}

// ChannelURL returns the public link for a channel stored in "@name" form.
func ChannelURL(channel string) string {
	return "https://t.me/" + strings.TrimPrefix(channel, "@")
}
