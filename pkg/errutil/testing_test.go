// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RecycleHub Contributors

package errutil_test

import (
	"errors"
	"testing"

	"github.com/samber/oops"

	"github.com/recyclehub/recyclehub/pkg/errutil"
)

func TestAssertErrorCode_MatchingCode(t *testing.T) {
	err := oops.Code("AUTH_VALIDATION").Wrap(errors.New("name is required"))
	errutil.AssertErrorCode(t, err, "AUTH_VALIDATION")
}

func TestAssertErrorContext_MatchingKeyValue(t *testing.T) {
	err := oops.With("user_id", "123").Errorf("test error")
	errutil.AssertErrorContext(t, err, "user_id", "123")
}
