package geometa

import (
	"strconv"
	"strings"
)

// EPSGWGS84 is the canonical geographic CRS every bbox polygon is expressed in.
const EPSGWGS84 = 4326

// WGS84WKT is the WKT1 definition of EPSG:4326 as GDAL exports it.
const WGS84WKT = `GEOGCS["WGS 84",DATUM["WGS_1984",SPHEROID["WGS 84",6378137,298.257223563,AUTHORITY["EPSG","7030"]],AUTHORITY["EPSG","6326"]],PRIMEM["Greenwich",0,AUTHORITY["EPSG","8901"]],UNIT["degree",0.0174532925199433,AUTHORITY["EPSG","9122"]],AUTHORITY["EPSG","4326"]]`

// CRS describes a source's coordinate reference system.
type CRS struct {
	Authority string `json:"authority,omitempty"` // Authority name, e.g. "EPSG"
	Code      int    `json:"code,omitempty"`      // Authority code, 0 when undetermined
	WKT       string `json:"wkt,omitempty"`       // Full WKT definition
}

// WGS84 returns the EPSG:4326 descriptor.
func WGS84() *CRS {
	return &CRS{Authority: "EPSG", Code: EPSGWGS84, WKT: WGS84WKT}
}

// EPSG returns the EPSG code of c, or 0 when c is nil or carries another
// authority.
func (c *CRS) EPSG() int {
	if c == nil || !strings.EqualFold(c.Authority, "EPSG") {
		return 0
	}
	return c.Code
}

func (c *CRS) String() string {
	if c == nil {
		return "<none>"
	}
	if c.Code == 0 {
		return "<unidentified>"
	}
	return c.Authority + ":" + strconv.Itoa(c.Code)
}

// CRSIdentifier looks up the EPSG code matching a CRS definition, the way
// GDAL's AutoIdentifyEPSG does.
type CRSIdentifier interface {
	IdentifyEPSG(crs *CRS) (int, error)
}

// NeedsReprojection reports whether an extent in crs must be transformed to
// reach EPSG:4326.
func NeedsReprojection(crs *CRS) bool {
	return crs.EPSG() != EPSGWGS84
}

// ResolveCRS determines the EPSG code of crs. An explicit EPSG code wins, then
// the root AUTHORITY node of the WKT, then the identifier. The returned
// descriptor is a copy; crs is not modified.
func ResolveCRS(crs *CRS, id CRSIdentifier) (*CRS, error) {
	if crs == nil {
		return nil, Errorf(KindMissingCRS, "resolve crs", "source has no spatial reference")
	}
	out := *crs
	if out.EPSG() > 0 {
		return &out, nil
	}

	if auth, code, ok := AuthorityFromWKT(out.WKT); ok && strings.EqualFold(auth, "EPSG") {
		out.Authority, out.Code = "EPSG", code
		return &out, nil
	}

	if id != nil {
		code, err := id.IdentifyEPSG(&out)
		if err == nil && code > 0 {
			out.Authority, out.Code = "EPSG", code
			return &out, nil
		}
		if err != nil {
			return nil, NewError(KindMissingCRS, "identify epsg", err)
		}
	}
	return nil, Errorf(KindMissingCRS, "resolve crs", "no EPSG authority for %q", truncate(out.WKT, 60))
}

// AuthorityFromWKT reads the AUTHORITY (or WKT2 ID) node that is a direct
// child of the root node, matching GDAL's GetAuthorityCode(NULL).
func AuthorityFromWKT(s string) (authority string, code int, ok bool) {
	depth := 0
	inQuote := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"':
			inQuote = !inQuote
		case inQuote:
		case c == '[' || c == '(':
			if depth == 1 {
				kw := keywordBefore(s, i)
				if kw == "AUTHORITY" || kw == "ID" {
					if a, n, good := parseAuthorityArgs(s[i+1:]); good {
						authority, code, ok = a, n, true
					}
				}
			}
			depth++
		case c == ']' || c == ')':
			depth--
		}
	}
	return authority, code, ok
}

func keywordBefore(s string, open int) string {
	end := open
	for end > 0 && s[end-1] == ' ' {
		end--
	}
	start := end
	for start > 0 {
		c := s[start-1]
		if c == '_' || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			start--
			continue
		}
		break
	}
	return strings.ToUpper(s[start:end])
}

// parseAuthorityArgs reads `"EPSG","4326"]` or `"EPSG",4326]`.
func parseAuthorityArgs(s string) (string, int, bool) {
	end := strings.IndexAny(s, "])")
	if end < 0 {
		return "", 0, false
	}
	parts := strings.Split(s[:end], ",")
	if len(parts) < 2 {
		return "", 0, false
	}
	name := strings.Trim(strings.TrimSpace(parts[0]), `"`)
	code, err := strconv.Atoi(strings.Trim(strings.TrimSpace(parts[1]), `"`))
	if err != nil || name == "" {
		return "", 0, false
	}
	return name, code, true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
