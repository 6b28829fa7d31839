// SPDX-License-Identifier: MPL-2.0

// Package issue defines the failure taxonomy shared by every stage of the
// install pipeline, plus user-facing error presentation.
//
// Stages wrap one of the Err* sentinels with %w so that KindOf can classify
// any error chain into exactly one Kind. The CLI switches on that Kind to pick
// suggestions, exit codes and the markdown troubleshooting guide.
package issue
