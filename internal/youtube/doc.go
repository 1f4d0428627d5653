// Package youtube wraps the YouTube Data API v3 videos.list endpoint.
//
// Only the snippet and statistics parts are requested. Calls are paced by a
// token-bucket limiter so a large catalog does not burst through the daily
// quota.
package youtube
