// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "time"

// MaxUserAgentLen caps the stored user-agent string on both statistics
// tables.
const MaxUserAgentLen = 500

// ViewStatistic is one row per tracked page view. The resolved section,
// category, and news references are all optional and are nulled out when
// their referent is deleted.
type ViewStatistic struct {
	ID         int64     `json:"id"`
	IPAddress  string    `json:"ip_address"`
	UserAgent  string    `json:"user_agent"`
	Path       string    `json:"path"`
	SectionID  *int64    `json:"section_id,omitempty"`
	CategoryID *int64    `json:"category_id,omitempty"`
	NewsID     *int64    `json:"news_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// DownloadStatistic is one row per tracked file download. It is
// cascade-deleted with the owning file.
type DownloadStatistic struct {
	ID           int64     `json:"id"`
	NewsFileID   int64     `json:"news_file_id"`
	IPAddress    string    `json:"ip_address"`
	UserAgent    string    `json:"user_agent"`
	DownloadedAt time.Time `json:"downloaded_at"`
}

// TruncateUserAgent trims a user-agent string to the stored maximum.
func TruncateUserAgent(ua string) string {
	if len(ua) > MaxUserAgentLen {
		return ua[:MaxUserAgentLen]
	}
	return ua
}
