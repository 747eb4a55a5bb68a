package footprint

import "github.com/Mindburn-Labs/pact-conformance/pkg/query"

// ProductFootprintV2 is a revision 2 (Pathfinder) footprint record.
type ProductFootprintV2 struct {
	ID                  string               `json:"id"`
	SpecVersion         string               `json:"specVersion"`
	Version             int                  `json:"version"`
	Created             string               `json:"created"`
	Updated             string               `json:"updated,omitempty"`
	Status              string               `json:"status"`
	StatusComment       string               `json:"statusComment,omitempty"`
	ValidityPeriodStart string               `json:"validityPeriodStart,omitempty"`
	ValidityPeriodEnd   string               `json:"validityPeriodEnd,omitempty"`
	CompanyName         string               `json:"companyName"`
	CompanyIDs          []string             `json:"companyIds"`
	ProductDescription  string               `json:"productDescription"`
	ProductIDs          []string             `json:"productIds"`
	ProductCategoryCpc  string               `json:"productCategoryCpc"`
	ProductNameCompany  string               `json:"productNameCompany"`
	Comment             string               `json:"comment"`
	PCF                 CarbonFootprintV2    `json:"pcf"`
	Extensions          []DataModelExtension `json:"extensions,omitempty"`
}

// CarbonFootprintV2 is the revision 2 measurement block.
type CarbonFootprintV2 struct {
	DeclaredUnit                       string                        `json:"declaredUnit"`
	UnitaryProductAmount               string                        `json:"unitaryProductAmount"`
	PCFExcludingBiogenic               string                        `json:"pCfExcludingBiogenic"`
	PCFIncludingBiogenic               string                        `json:"pCfIncludingBiogenic,omitempty"`
	FossilGhgEmissions                 string                        `json:"fossilGhgEmissions"`
	FossilCarbonContent                string                        `json:"fossilCarbonContent"`
	BiogenicCarbonContent              string                        `json:"biogenicCarbonContent"`
	DLucGhgEmissions                   string                        `json:"dLucGhgEmissions,omitempty"`
	LandManagementGhgEmissions         string                        `json:"landManagementGhgEmissions,omitempty"`
	OtherBiogenicGhgEmissions          string                        `json:"otherBiogenicGhgEmissions,omitempty"`
	ILucGhgEmissions                   string                        `json:"iLucGhgEmissions,omitempty"`
	BiogenicCarbonWithdrawal           string                        `json:"biogenicCarbonWithdrawal,omitempty"`
	AircraftGhgEmissions               string                        `json:"aircraftGhgEmissions,omitempty"`
	CharacterizationFactors            string                        `json:"characterizationFactors"`
	IPCCCharacterizationFactorsSources []string                      `json:"ipccCharacterizationFactorsSources"`
	CrossSectoralStandardsUsed         []string                      `json:"crossSectoralStandardsUsed"`
	ProductOrSectorSpecificRules       []ProductOrSectorSpecificRule `json:"productOrSectorSpecificRules"`
	BiogenicAccountingMethodology      string                        `json:"biogenicAccountingMethodology,omitempty"`
	BoundaryProcessesDescription       string                        `json:"boundaryProcessesDescription"`
	ReferencePeriodStart               string                        `json:"referencePeriodStart"`
	ReferencePeriodEnd                 string                        `json:"referencePeriodEnd"`
	SecondaryEmissionFactorSources     []EmissionFactorSource        `json:"secondaryEmissionFactorSources,omitempty"`
	ExemptedEmissionsPercent           float64                       `json:"exemptedEmissionsPercent"`
	ExemptedEmissionsDescription       string                        `json:"exemptedEmissionsDescription"`
	PackagingEmissionsIncluded         bool                          `json:"packagingEmissionsIncluded"`
	PackagingGhgEmissions              string                        `json:"packagingGhgEmissions,omitempty"`
	AllocationRulesDescription         string                        `json:"allocationRulesDescription,omitempty"`
	UncertaintyAssessmentDescription   string                        `json:"uncertaintyAssessmentDescription,omitempty"`
	PrimaryDataShare                   *float64                      `json:"primaryDataShare,omitempty"`
	DQI                                *DataQualityIndicatorsV2      `json:"dqi,omitempty"`
	Assurance                          *Assurance                    `json:"assurance,omitempty"`
}

// DataQualityIndicatorsV2 uses plain numbers, unlike revision 3.
type DataQualityIndicatorsV2 struct {
	CoveragePercent  float64 `json:"coveragePercent"`
	TechnologicalDQR float64 `json:"technologicalDQR"`
	TemporalDQR      float64 `json:"temporalDQR"`
	GeographicalDQR  float64 `json:"geographicalDQR"`
	CompletenessDQR  float64 `json:"completenessDQR"`
	ReliabilityDQR   float64 `json:"reliabilityDQR"`
}

type Assurance struct {
	Assurance    bool   `json:"assurance"`
	ProviderName string `json:"providerName"`
	Coverage     string `json:"coverage,omitempty"`
	Level        string `json:"level,omitempty"`
	Boundary     string `json:"boundary,omitempty"`
	CompletedAt  string `json:"completedAt,omitempty"`
	StandardName string `json:"standardName,omitempty"`
	Comments     string `json:"comments,omitempty"`
}

func (p ProductFootprintV2) RecordID() string          { return p.ID }
func (p ProductFootprintV2) RecordSpecVersion() string { return p.SpecVersion }

// Facets exposes the fields the query engine filters on. Revision 2 records
// carry no classifications or geography.
func (p ProductFootprintV2) Facets() query.Facets {
	return query.Facets{
		ProductIDs:    p.ProductIDs,
		CompanyIDs:    p.CompanyIDs,
		Status:        p.Status,
		ValidityStart: parseTime(p.ValidityPeriodStart),
		ValidityEnd:   parseTime(p.ValidityPeriodEnd),
	}
}
