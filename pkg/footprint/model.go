package footprint

import (
	"time"

	"github.com/Mindburn-Labs/pact-conformance/pkg/query"
)

// ProductFootprint is a revision 3 footprint record. Numeric measurement
// fields are decimal strings so audited figures survive without rounding.
type ProductFootprint struct {
	ID                     string               `json:"id"`
	SpecVersion            string               `json:"specVersion"`
	PrecedingPfIDs         []string             `json:"precedingPfIds,omitempty"`
	Created                string               `json:"created"`
	Status                 string               `json:"status"`
	ValidityPeriodStart    string               `json:"validityPeriodStart,omitempty"`
	ValidityPeriodEnd      string               `json:"validityPeriodEnd,omitempty"`
	CompanyName            string               `json:"companyName"`
	CompanyIDs             []string             `json:"companyIds"`
	ProductDescription     string               `json:"productDescription"`
	ProductIDs             []string             `json:"productIds"`
	ProductClassifications []string             `json:"productClassifications"`
	ProductNameCompany     string               `json:"productNameCompany"`
	Comment                string               `json:"comment,omitempty"`
	PCF                    CarbonFootprint      `json:"pcf"`
	Extensions             []DataModelExtension `json:"extensions,omitempty"`
}

// CarbonFootprint is the revision 3 measurement block.
type CarbonFootprint struct {
	DeclaredUnitOfMeasurement          string                        `json:"declaredUnitOfMeasurement"`
	DeclaredUnitAmount                 string                        `json:"declaredUnitAmount"`
	ProductMassPerDeclaredUnit         string                        `json:"productMassPerDeclaredUnit"`
	ReferencePeriodStart               string                        `json:"referencePeriodStart"`
	ReferencePeriodEnd                 string                        `json:"referencePeriodEnd"`
	GeographyRegionOrSubregion         string                        `json:"geographyRegionOrSubregion,omitempty"`
	GeographyCountry                   string                        `json:"geographyCountry,omitempty"`
	GeographyCountrySubdivision        string                        `json:"geographyCountrySubdivision,omitempty"`
	BoundaryProcessesDescription       string                        `json:"boundaryProcessesDescription,omitempty"`
	PCFExcludingBiogenicUptake         string                        `json:"pcfExcludingBiogenicUptake"`
	PCFIncludingBiogenicUptake         string                        `json:"pcfIncludingBiogenicUptake"`
	FossilCarbonContent                string                        `json:"fossilCarbonContent"`
	BiogenicCarbonContent              string                        `json:"biogenicCarbonContent,omitempty"`
	RecycledCarbonContent              string                        `json:"recycledCarbonContent,omitempty"`
	FossilGhgEmissions                 string                        `json:"fossilGhgEmissions"`
	LandUseChangeGhgEmissions          string                        `json:"landUseChangeGhgEmissions,omitempty"`
	LandCarbonLeakage                  string                        `json:"landCarbonLeakage,omitempty"`
	LandManagementFossilGhgEmissions   string                        `json:"landManagementFossilGhgEmissions,omitempty"`
	LandManagementBiogenicCO2Emissions string                        `json:"landManagementBiogenicCO2Emissions,omitempty"`
	LandManagementBiogenicCO2Removals  string                        `json:"landManagementBiogenicCO2Removals,omitempty"`
	BiogenicCO2Uptake                  string                        `json:"biogenicCO2Uptake,omitempty"`
	BiogenicNonCO2Emissions            string                        `json:"biogenicNonCO2Emissions,omitempty"`
	LandAreaOccupation                 string                        `json:"landAreaOccupation,omitempty"`
	AircraftGhgEmissions               string                        `json:"aircraftGhgEmissions,omitempty"`
	PackagingEmissionsIncluded         bool                          `json:"packagingEmissionsIncluded"`
	PackagingGhgEmissions              string                        `json:"packagingGhgEmissions,omitempty"`
	PackagingBiogenicCarbonContent     string                        `json:"packagingBiogenicCarbonContent,omitempty"`
	OutboundLogisticsGhgEmissions      string                        `json:"outboundLogisticsGhgEmissions,omitempty"`
	CCSTechnologicalCO2CaptureIncluded bool                          `json:"ccsTechnologicalCO2CaptureIncluded"`
	CCSTechnologicalCO2Capture         string                        `json:"ccsTechnologicalCO2Capture,omitempty"`
	TechnologicalCO2CaptureOrigin      string                        `json:"technologicalCO2CaptureOrigin,omitempty"`
	TechnologicalCO2Removals           string                        `json:"technologicalCO2Removals,omitempty"`
	CCUCarbonContent                   string                        `json:"ccuCarbonContent,omitempty"`
	CCUCalculationApproach             string                        `json:"ccuCalculationApproach,omitempty"`
	CCUCreditCertification             string                        `json:"ccuCreditCertification,omitempty"`
	IPCCCharacterizationFactors        []string                      `json:"ipccCharacterizationFactors"`
	CrossSectoralStandards             []string                      `json:"crossSectoralStandards"`
	ProductOrSectorSpecificRules       []ProductOrSectorSpecificRule `json:"productOrSectorSpecificRules,omitempty"`
	ExemptedEmissionsPercent           string                        `json:"exemptedEmissionsPercent"`
	ExemptedEmissionsDescription       string                        `json:"exemptedEmissionsDescription,omitempty"`
	AllocationRulesDescription         string                        `json:"allocationRulesDescription,omitempty"`
	SecondaryEmissionFactorSources     []EmissionFactorSource        `json:"secondaryEmissionFactorSources,omitempty"`
	PrimaryDataShare                   string                        `json:"primaryDataShare,omitempty"`
	DQI                                *DataQualityIndicators        `json:"dqi,omitempty"`
	Verification                       *Verification                 `json:"verification,omitempty"`
}

// DataModelExtension carries third-party data attached to a footprint.
type DataModelExtension struct {
	SpecVersion   string         `json:"specVersion"`
	DataSchema    string         `json:"dataSchema"`
	Documentation string         `json:"documentation,omitempty"`
	Data          map[string]any `json:"data"`
}

type ProductOrSectorSpecificRule struct {
	Operator          string   `json:"operator"`
	RuleNames         []string `json:"ruleNames"`
	OtherOperatorName string   `json:"otherOperatorName,omitempty"`
}

type EmissionFactorSource struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type DataQualityIndicators struct {
	TechnologicalDQR string `json:"technologicalDQR"`
	GeographicalDQR  string `json:"geographicalDQR"`
	TemporalDQR      string `json:"temporalDQR"`
}

type Verification struct {
	Coverage     string `json:"coverage,omitempty"`
	ProviderName string `json:"providerName,omitempty"`
	CompletedAt  string `json:"completedAt,omitempty"`
	StandardName string `json:"standardName,omitempty"`
	Comments     string `json:"comments,omitempty"`
}

func (p ProductFootprint) RecordID() string          { return p.ID }
func (p ProductFootprint) RecordSpecVersion() string { return p.SpecVersion }

// Facets exposes the fields the query engine filters on.
func (p ProductFootprint) Facets() query.Facets {
	var geo []string
	for _, g := range []string{p.PCF.GeographyCountry, p.PCF.GeographyRegionOrSubregion, p.PCF.GeographyCountrySubdivision} {
		if g != "" {
			geo = append(geo, g)
		}
	}
	return query.Facets{
		ProductIDs:      p.ProductIDs,
		CompanyIDs:      p.CompanyIDs,
		Classifications: p.ProductClassifications,
		Geographies:     geo,
		Status:          p.Status,
		ValidityStart:   parseTime(p.ValidityPeriodStart),
		ValidityEnd:     parseTime(p.ValidityPeriodEnd),
	}
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil
	}
	return &t
}
