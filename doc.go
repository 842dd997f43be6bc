// Package livepager turns periodically polled collections into push streams
// and walks ordered collections with keyset cursors.
//
// Overview
//
// livepager has two independent halves:
//   - Stream: a poll-to-push adapter. A PollFunc is invoked on a fixed
//     interval and every item it emits is forwarded to the subscribed
//     Observer. Ticks never overlap and are delivered in order.
//   - Resolve and CursorPager: keyset pagination over an ordered collection,
//     either in memory or pushed down into a GORM query.
//
// Key concepts
//   - Cursor: the position key of the last item already seen, nil for the
//     start of the collection. Cursors are exclusive, a page resumes strictly
//     after the cursor key.
//   - ChangeGate: a PollFunc emitting the full collection only when its
//     fingerprint changed since the last emission.
//   - Tail: a PollFunc emitting every item positioned after the last one it
//     emitted.
package livepager
