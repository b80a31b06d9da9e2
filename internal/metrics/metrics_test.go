// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const doc = `<div created="20180108222550419" title="kept" tags="[[open">
<pre>x</pre>
</div>
<div title="no created">
<pre>x</pre>
</div>
<div created="20180108222550419" title="$:/sys">
<pre>x</pre>
</div>
<div created="20180108222550419" title="$:/other">
<pre>x</pre>
</div>
`

func TestScannerCountsRejectionsAndFieldErrors(t *testing.T) {
	r := New()
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	got := slices.Collect(r.Scanner(log).All(doc))
	r.Extracted(len(got))

	assert.Len(t, got, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(r.extracted))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.rejected.WithLabelValues("system-title")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.rejected.WithLabelValues("missing-created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.fieldErrors.WithLabelValues("tags")))
	assert.Len(t, hook.AllEntries(), 4)
}

func TestConversion(t *testing.T) {
	r := New()
	r.Conversion(nil)
	r.Conversion(nil)
	r.Conversion(errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(r.conversions.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.conversions.WithLabelValues("error")))
}

func TestWriteFile(t *testing.T) {
	r := New()
	r.Extracted(3)

	path := filepath.Join(t.TempDir(), "tiddly.prom")
	require.NoError(t, r.WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "tiddly_records_extracted_total 3")

	assert.NoError(t, r.WriteFile(""))
}
