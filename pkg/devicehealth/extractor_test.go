// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package devicehealth

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cobaltcore-dev/drivecheck/pkg/locale"
)

func TestNewExtractorDispatch(t *testing.T) {
	s := locale.New(locale.English)

	nvme := NewExtractor(InterfaceNVMe, s)
	assert.IsType(t, NVMeExtractor{}, nvme)
	assert.Equal(t, InterfaceNVMe, nvme.Interface())

	ata := NewExtractor(InterfaceATA, s)
	assert.IsType(t, ATAExtractor{}, ata)
	assert.Equal(t, InterfaceATA, ata.Interface())

	assert.Panics(t, func() { NewExtractor(Interface(42), s) })
}

func TestParseInterface(t *testing.T) {
	assert.Equal(t, InterfaceNVMe, ParseInterface("nvme"))
	assert.Equal(t, InterfaceNVMe, ParseInterface("NVMe"))
	assert.Equal(t, InterfaceATA, ParseInterface("sat"))
	assert.Equal(t, InterfaceATA, ParseInterface("ATA"))
	assert.Equal(t, InterfaceATA, ParseInterface("scsi"))
	assert.Equal(t, "NVMe", InterfaceNVMe.String())
	assert.Equal(t, "ATA", InterfaceATA.String())
}

func TestExtractIsPure(t *testing.T) {
	s := locale.New(locale.English)
	for _, tc := range []struct {
		kind    Interface
		fixture string
	}{
		{InterfaceNVMe, "nvme.json"},
		{InterfaceATA, "ata.json"},
	} {
		ex := NewExtractor(tc.kind, s)
		doc := loadFixture(t, tc.fixture)

		first, err := json.Marshal(ex.Extract(doc))
		require.NoError(t, err)
		second, err := json.Marshal(ex.Extract(doc))
		require.NoError(t, err)
		assert.Equal(t, string(first), string(second), tc.fixture)
	}
}

func TestRecordOrderIndependentOfFieldOrder(t *testing.T) {
	ex := NewExtractor(InterfaceNVMe, locale.New(locale.English))

	a := ex.Extract(mustParse(t, `{"nvme_smart_health_information_log": {"unsafe_shutdowns": 1, "power_cycles": 2, "available_spare": 100}}`))
	b := ex.Extract(mustParse(t, `{"nvme_smart_health_information_log": {"available_spare": 100, "power_cycles": 2, "unsafe_shutdowns": 1}}`))

	assert.Equal(t, a, b)
	require.Len(t, a.Records, 3)
	assert.Equal(t, []AttributeKey{NVMeAvailableSpare, NVMePowerCycles, NVMeUnsafeShutdowns},
		[]AttributeKey{a.Records[0].Key, a.Records[1].Key, a.Records[2].Key})
}

func TestParseDocumentErrors(t *testing.T) {
	_, err := ParseDocument([]byte(`{"nvme_smart_health_information_log": `))
	require.Error(t, err)

	var parseErr *ParseError
	assert.True(t, errors.As(err, &parseErr))

	_, err = ParseDocument(nil)
	assert.Error(t, err)
}

func TestNodeAccessors(t *testing.T) {
	doc := mustParse(t, `{"a": {"b": [1, "two", true, 9223372036854775807, 1.5]}, "s": "text"}`)

	arr := doc.Path("a", "b").Array()
	require.Len(t, arr, 5)

	v, ok := arr[0].Int()
	assert.True(t, ok)
	assert.Equal(t, int64(1), v)

	_, ok = arr[1].Int()
	assert.False(t, ok)

	b, ok := arr[2].Bool()
	assert.True(t, ok)
	assert.True(t, b)

	v, ok = arr[3].Int()
	assert.True(t, ok)
	assert.Equal(t, int64(9223372036854775807), v)

	_, ok = arr[4].Int()
	assert.False(t, ok)

	s, ok := doc.Get("s").Text()
	assert.True(t, ok)
	assert.Equal(t, "text", s)

	assert.False(t, doc.Path("a", "missing", "deeper").Exists())
	assert.Nil(t, doc.Get("s").Array())
}

func TestSeverityText(t *testing.T) {
	for _, sev := range []Severity{Ok, Warning, Critical} {
		text, err := sev.MarshalText()
		require.NoError(t, err)

		var back Severity
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, sev, back)
	}
	assert.True(t, Ok < Warning && Warning < Critical)

	var s Severity
	assert.Error(t, s.UnmarshalText([]byte("fatal")))
}

func TestResultWorst(t *testing.T) {
	assert.Equal(t, Ok, Result{}.Worst())
	assert.Equal(t, Warning, Result{Records: []MetricRecord{{Severity: Ok}, {Severity: Warning}}}.Worst())
	assert.Equal(t, Critical, Result{Alert: &Alert{Value: 1}, Records: []MetricRecord{{Severity: Ok}}}.Worst())
}
