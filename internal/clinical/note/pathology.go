// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package note

// Pathology is a tag from the closed neurosurgical pathology set (§3).
type Pathology string

const (
	PathologySAH           Pathology = "SAH"
	PathologyTumor         Pathology = "TUMOR"
	PathologySpine         Pathology = "SPINE"
	PathologyTBI           Pathology = "TBI"
	PathologyHydrocephalus Pathology = "HYDROCEPHALUS"
	PathologyCSDH          Pathology = "CSDH"
	PathologyCSFLeak       Pathology = "CSF_LEAK"
	PathologySeizures      Pathology = "SEIZURES"
	PathologyMetastases    Pathology = "METASTASES"
	PathologyGeneral       Pathology = "GENERAL"
)

// AllPathologies lists the closed tag set, in a stable order used for
// deterministic scoring iteration in the Context Builder.
var AllPathologies = []Pathology{
	PathologySAH, PathologyTumor, PathologySpine, PathologyTBI,
	PathologyHydrocephalus, PathologyCSDH, PathologyCSFLeak,
	PathologySeizures, PathologyMetastases, PathologyGeneral,
}
