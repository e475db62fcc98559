// Copyright 2026 The Timesheet Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastHasher() *PasswordHasher {
	return NewPasswordHasher(1024, 1, 1, 16, 32)
}

// TestPurpose: Validates Argon2id hashing round trip.
// Scope: Unit Test
// Security: Passwords are salted; wrong passwords never verify
// Expected: Same password hashes differently twice and verifies; wrong password fails.
// Test Case ID: IDN-01
func TestPasswordHasher(t *testing.T) {
	h := fastHasher()

	a, err := h.Hash("secret1")
	require.NoError(t, err)
	b, err := h.Hash("secret1")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Contains(t, a, "$argon2id$v=19$m=1024,t=1,p=1$")

	ok, err := h.Verify("secret1", a)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify("secret2", a)
	require.NoError(t, err)
	assert.False(t, ok)

	// a hash made with other parameters still verifies
	ok, err = DefaultPasswordHasher().Verify("secret1", a)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPasswordHasher_Malformed(t *testing.T) {
	h := fastHasher()
	for _, enc := range []string{"", "plain", "$bcrypt$x$y$z$w", "$argon2id$v=19$m=1,t=1,p=1$!!$abc"} {
		_, err := h.Verify("x", enc)
		assert.ErrorIs(t, err, ErrMalformedHash, enc)
	}
}

func BenchmarkPasswordHasher_Hash(b *testing.B) {
	h := DefaultPasswordHasher()
	for i := 0; i < b.N; i++ {
		if _, err := h.Hash("correct-horse-battery-staple"); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkPasswordHasher_Verify(b *testing.B) {
	h := DefaultPasswordHasher()
	hash, err := h.Hash("correct-horse-battery-staple")
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ok, err := h.Verify("correct-horse-battery-staple", hash)
		if err != nil || !ok {
			b.Fatalf("verify failed: %v", err)
		}
	}
}
