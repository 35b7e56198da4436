// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package present implements [boot.Sink]: the presentation side of a
// boot.
//
// [Terminal] writes styled status lines and stage reports to a
// terminal or log stream. [Page] maintains an HTML page on disk that
// is rewritten after every event, embedding the artifact's
// presentation shell when it has one; reports are rendered from
// Markdown ([Markdown]). [Recorder] keeps every event for tests, [Nop]
// drops them, and [Tee] fans events out to several sinks.
package present
