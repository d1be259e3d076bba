package dataset

import "complaint-router/internal/models"

// categoryDepartments maps a category onto the department that owns it when
// no department carries the category's name.
var categoryDepartments = map[string]string{
	string(models.CategoryInfrastructure): "Public Works",
	string(models.CategoryUtilities):      "Water Supply",
	string(models.CategoryTraffic):        "Traffic Police",
	string(models.CategoryEnvironment):    "Environment",
	string(models.CategoryHealthcare):     "Healthcare",
	string(models.CategoryEducation):      "Education",
}

const fallbackDepartment = "Public Works"

// ResolveDepartmentInfo returns contact details for key, which may be a
// department name or a category. The lookup order is direct match, category
// remap, and finally a generic record, so the result is always populated.
// Department names the record that answered, or key for the generic record.
// A known district overlays the district magistrate's contacts.
func (d *Dataset) ResolveDepartmentInfo(key, district string) models.DepartmentInfo {
	dep, ok := d.DepartmentInfo(key)
	if !ok {
		name, mapped := categoryDepartments[key]
		if !mapped {
			name = fallbackDepartment
		}
		dep, ok = d.DepartmentInfo(name)
	}

	info := models.DepartmentInfo{
		Department:   key,
		Contact:      "N/A",
		Email:        "N/A",
		Emergency:    d.HelplineNumber("emergency"),
		ResponseTime: "3-5 days",
		Services:     []string{},
		Head:         "Department Head",
		Address:      "Government Office, Lucknow",
	}
	if ok {
		setIf(&info.Department, dep.Name)
		setIf(&info.Contact, dep.Contact)
		setIf(&info.Email, dep.Email)
		setIf(&info.Emergency, dep.EmergencyContact)
		setIf(&info.ResponseTime, dep.ResponseTime)
		setIf(&info.Head, dep.Head)
		setIf(&info.Address, dep.Address)
		if len(dep.Services) > 0 {
			info.Services = append([]string(nil), dep.Services...)
		}
	}

	if district != "" {
		if dist, found := d.DistrictInfo(district); found {
			info.DistrictDM = dist.DMContact
			info.DistrictEmail = dist.Collectorate
		}
	}
	return info
}

// ResolveFor prefers the department's own record so sibling departments under
// one category keep their contacts, and falls back to the category otherwise.
func (d *Dataset) ResolveFor(department, category, district string) models.DepartmentInfo {
	if _, ok := d.DepartmentInfo(department); ok {
		return d.ResolveDepartmentInfo(department, district)
	}
	return d.ResolveDepartmentInfo(category, district)
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
