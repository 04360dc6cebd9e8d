// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package devicehealth

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cobaltcore-dev/drivecheck/pkg/locale"
)

// ataDoc builds a document from "id:value:raw" triples.
func ataDoc(t *testing.T, entries ...string) *Document {
	var rows []string
	for _, e := range entries {
		var id, value, raw int64
		_, err := fmt.Sscanf(e, "%d:%d:%d", &id, &value, &raw)
		require.NoError(t, err)
		rows = append(rows, fmt.Sprintf(`{"id": %d, "value": %d, "raw": {"value": %d}}`, id, value, raw))
	}
	return mustParse(t, fmt.Sprintf(`{"ata_smart_attributes": {"table": [%s]}}`, strings.Join(rows, ",")))
}

func TestATAExtractFixture(t *testing.T) {
	ex := NewExtractor(InterfaceATA, locale.New(locale.English))
	res := ex.Extract(loadFixture(t, "ata.json"))

	assert.Nil(t, res.Alert)
	assert.Equal(t, []MetricRecord{
		{Key: ATAKeyReallocatedSectors, Label: "Reallocated Sectors", Value: "0", Severity: Ok, Raw: 0},
		{Key: ATAKeyPowerOnHours, Label: "Operating hours", Value: "21630 h (901 days)", Severity: Ok, Raw: 21630},
		{Key: ATAKeyPowerCycles, Label: "Power cycles", Value: "512", Severity: Ok, Raw: 512},
		{Key: ATAKeyWearLevel, Label: "Drive Health (remaining)", Value: "88%", Severity: Ok, Raw: 88},
		{Key: ATAKeyTotalLBAsWritten, Label: "Data written (approx.)", Value: "33.65 TB", Severity: Ok, Raw: 65728542347},
	}, res.Records)
}

func TestATAWearUsesNormalizedValue(t *testing.T) {
	tests := []struct {
		normalized int64
		want       Severity
	}{
		{5, Critical},
		{10, Critical},
		{11, Warning},
		{20, Warning},
		{30, Warning},
		{31, Ok},
		{50, Ok},
	}

	ex := NewExtractor(InterfaceATA, locale.New(locale.English))
	for _, tt := range tests {
		t.Run(fmt.Sprintf("wear_%d", tt.normalized), func(t *testing.T) {
			// raw deliberately disagrees with the normalized value
			res := ex.Extract(ataDoc(t, fmt.Sprintf("177:%d:9999", tt.normalized)))
			require.Len(t, res.Records, 1)
			assert.Equal(t, fmt.Sprintf("%d%%", tt.normalized), res.Records[0].Value)
			assert.Equal(t, tt.want, res.Records[0].Severity)
		})
	}
}

func TestATAReallocatedAndSpinRetry(t *testing.T) {
	ex := NewExtractor(InterfaceATA, locale.New(locale.English))

	res := ex.Extract(ataDoc(t, "10:100:0", "5:100:1"))
	require.Len(t, res.Records, 2)
	// fixed order: reallocated before spin retry regardless of table order
	assert.Equal(t, "Reallocated Sectors", res.Records[0].Label)
	assert.Equal(t, "1", res.Records[0].Value)
	assert.Equal(t, Warning, res.Records[0].Severity)
	assert.Equal(t, "Spin Retry Count", res.Records[1].Label)
	assert.Equal(t, Ok, res.Records[1].Severity)

	res = ex.Extract(ataDoc(t, "10:100:3"))
	require.Len(t, res.Records, 1)
	assert.Equal(t, Warning, res.Records[0].Severity)
}

func TestATAMissingReallocated(t *testing.T) {
	ex := NewExtractor(InterfaceATA, locale.New(locale.English))
	res := ex.Extract(ataDoc(t, "9:99:100", "12:99:7"))

	for _, rec := range res.Records {
		assert.NotEqual(t, "Reallocated Sectors", rec.Label)
	}
	require.Len(t, res.Records, 2)
	assert.Equal(t, "100 h (4 days)", res.Records[0].Value)
	assert.Equal(t, "7", res.Records[1].Value)
}

func TestATATotalLBAsWritten(t *testing.T) {
	ex := NewExtractor(InterfaceATA, locale.New(locale.English))
	res := ex.Extract(ataDoc(t, "241:100:1953125000"))

	require.Len(t, res.Records, 1)
	assert.Equal(t, "1.00 TB", res.Records[0].Value)
	assert.Equal(t, Ok, res.Records[0].Severity)
}

func TestATAFirstEntryWins(t *testing.T) {
	ex := NewExtractor(InterfaceATA, locale.New(locale.English))
	res := ex.Extract(ataDoc(t, "5:100:0", "5:100:8"))

	require.Len(t, res.Records, 1)
	assert.Equal(t, "0", res.Records[0].Value)
}

func TestATATolerantTable(t *testing.T) {
	ex := NewExtractor(InterfaceATA, locale.New(locale.English))

	for _, raw := range []string{
		`{}`,
		`[]`,
		`{"ata_smart_attributes": null}`,
		`{"ata_smart_attributes": {"table": {"id": 5}}}`,
		`{"ata_smart_attributes": {"table": [1, "x", null, {"id": "5", "raw": {"value": 3}}]}}`,
		`{"ata_smart_attributes": {"table": [{"id": 5, "raw": {"value": "3"}}, {"id": 177, "value": null}]}}`,
	} {
		res := ex.Extract(mustParse(t, raw))
		assert.Empty(t, res.Records, raw)
	}
}

func TestATAIgnoresNVMeLog(t *testing.T) {
	ex := NewExtractor(InterfaceATA, locale.New(locale.English))
	res := ex.Extract(loadFixture(t, "nvme.json"))
	assert.Empty(t, res.Records)
	assert.Nil(t, res.Alert)
}
