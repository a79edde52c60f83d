// Copyright (c) 2026 Mentora. All rights reserved.
// Author: viet.trinhquoc@gmail.com

package slug_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trinhvq/mentora/pkg/slug"
)

/*
TestFrom tests tag normalization across scripts and punctuation.
*/
func TestFrom(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple", "Machine Learning", "machine-learning"},
		{"accents", "Máy Học", "may-hoc"},
		{"punctuation", "C++ / Systems!", "c-systems"},
		{"already_normalized", "golang", "golang"},
		{"extra_hyphens", "--data---science--", "data-science"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, slug.From(tt.input))
		})
	}
}

/*
TestFromAll tests de-duplication and empty-tag dropping.
*/
func TestFromAll(t *testing.T) {
	input := []string{"Go", "go", "  ", "Máy Học", "may-hoc"}
	assert.Equal(t, []string{"go", "may-hoc"}, slug.FromAll(input))

	assert.Nil(t, slug.FromAll(nil))
}
