// SPDX-FileCopyrightText: 2026 Logan Lindquist Land
// SPDX-License-Identifier: FSL-1.1-MIT

package ck

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const classCSVHeader = "file,class,type,cbo,cboModified,fanin,fanout,wmc,dit,noc,rfc,lcom,lcom*,tcc,lcc,totalMethodsQty,loc\n"

func TestParseClassCSV(t *testing.T) {
	report := classCSVHeader +
		"/tmp/a/A.java,a.A,class,2,2,0,2,10,1,0,12,4,0.5,0.1,0.1,5,100\n" +
		"/tmp/a/B.java,a.B,class,4,4,1,3,20,3,0,18,-1,0.5,0.1,0.1,7,250\n"

	m, err := ParseClassCSV(strings.NewReader(report))
	require.NoError(t, err)

	assert.Equal(t, 2, m.ClassCount)
	assert.Equal(t, 350, m.TotalLOC)
	assert.InDelta(t, 3.0, m.CBO, 1e-9)
	assert.InDelta(t, 15.0, m.WMC, 1e-9)
	assert.InDelta(t, 2.0, m.DIT, 1e-9)
	assert.InDelta(t, 15.0, m.RFC, 1e-9)
	assert.InDelta(t, 4.0, m.LCOM, 1e-9, "uncomputed -1 values are skipped")
}

func TestParseClassCSV_HeaderOnly(t *testing.T) {
	m, err := ParseClassCSV(strings.NewReader(classCSVHeader))
	require.NoError(t, err)
	assert.Equal(t, Metrics{}, m)
}

func TestParseClassCSV_Empty(t *testing.T) {
	m, err := ParseClassCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Zero(t, m.ClassCount)
}

func TestParseClassCSV_MissingColumn(t *testing.T) {
	_, err := ParseClassCSV(strings.NewReader("file,class,cbo\nx,y,1\n"))
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestParseClassCSV_BadNumber(t *testing.T) {
	report := classCSVHeader + "/tmp/a/A.java,a.A,class,two,2,0,2,10,1,0,12,4,0.5,0.1,0.1,5,100\n"

	_, err := ParseClassCSV(strings.NewReader(report))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "column cbo")
}
