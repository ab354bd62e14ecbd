package migrate

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

var (
	// UsersColumns holds the columns for the "users" table.
	UsersColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "email", Type: field.TypeString, Unique: true, Nullable: true, Size: 255},
		{Name: "username", Type: field.TypeString, Unique: true, Nullable: true, Size: 100},
		{Name: "phone", Type: field.TypeString, Unique: true, Nullable: true, Size: 20},
		{Name: "password_hash", Type: field.TypeString},
		{Name: "role", Type: field.TypeEnum, Enums: []string{"PATIENT", "DOCTOR", "PHYSIO", "ADMIN"}},
		{Name: "first_name", Type: field.TypeString, Nullable: true, Size: 100},
		{Name: "last_name", Type: field.TypeString, Nullable: true, Size: 100},
		{Name: "is_active", Type: field.TypeBool, Default: true},
		{Name: "is_verified", Type: field.TypeBool, Default: false},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	// UsersTable holds the schema information for the "users" table.
	UsersTable = &schema.Table{
		Name:       "users",
		Columns:    UsersColumns,
		PrimaryKey: []*schema.Column{UsersColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "user_role_last_name_first_name",
				Unique:  false,
				Columns: []*schema.Column{UsersColumns[5], UsersColumns[7], UsersColumns[6]},
			},
		},
	}

	// LicensesColumns holds the columns for the "licenses" table. One row per
	// registered license number, shared by doctors and physios.
	LicensesColumns = []*schema.Column{
		{Name: "number", Type: field.TypeString, Size: 64},
		{Name: "kind", Type: field.TypeEnum, Enums: []string{"DOCTOR", "PHYSIO"}},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "user_id", Type: field.TypeUUID},
	}
	LicensesTable = &schema.Table{
		Name:       "licenses",
		Columns:    LicensesColumns,
		PrimaryKey: []*schema.Column{LicensesColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "licenses_users_licenses",
				Columns:    []*schema.Column{LicensesColumns[3]},
				RefColumns: []*schema.Column{UsersColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{
				Name:    "license_user_id_kind",
				Unique:  true,
				Columns: []*schema.Column{LicensesColumns[3], LicensesColumns[1]},
			},
		},
	}

	// DoctorProfilesColumns holds the columns for the "doctor_profiles" table.
	DoctorProfilesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "license_number", Type: field.TypeString, Unique: true, Size: 64},
		{Name: "specialties", Type: field.TypeJSON},
		{Name: "years_of_experience", Type: field.TypeInt, Nullable: true},
		{Name: "bio", Type: field.TypeString, Nullable: true, Size: 2147483647},
		{Name: "consultation_fee", Type: field.TypeFloat64},
		{Name: "consultation_type", Type: field.TypeEnum, Enums: []string{"VIDEO", "IN_PERSON", "BOTH"}, Default: "BOTH"},
		{Name: "accepts_referrals", Type: field.TypeBool, Default: true},
		{Name: "hospital_affiliations", Type: field.TypeJSON},
		{Name: "bank_name", Type: field.TypeString, Nullable: true},
		{Name: "bank_account_number", Type: field.TypeString, Nullable: true},
		{Name: "bank_account_name", Type: field.TypeString, Nullable: true},
		{Name: "clinic_name", Type: field.TypeString, Nullable: true},
		{Name: "address_line1", Type: field.TypeString, Nullable: true},
		{Name: "address_line2", Type: field.TypeString, Nullable: true},
		{Name: "city", Type: field.TypeString, Nullable: true},
		{Name: "district", Type: field.TypeString, Nullable: true},
		{Name: "country", Type: field.TypeString, Nullable: true},
		{Name: "is_verified", Type: field.TypeBool, Default: false},
		{Name: "verification_status", Type: field.TypeEnum, Enums: []string{"PENDING", "APPROVED", "REJECTED"}, Default: "PENDING"},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
		{Name: "user_id", Type: field.TypeUUID, Unique: true},
	}
	DoctorProfilesTable = &schema.Table{
		Name:       "doctor_profiles",
		Columns:    DoctorProfilesColumns,
		PrimaryKey: []*schema.Column{DoctorProfilesColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "doctor_profiles_users_doctor_profile",
				Columns:    []*schema.Column{DoctorProfilesColumns[22]},
				RefColumns: []*schema.Column{UsersColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
	}

	// PhysioProfilesColumns holds the columns for the "physio_profiles" table.
	PhysioProfilesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "license_no", Type: field.TypeString, Unique: true, Size: 64},
		{Name: "specialties", Type: field.TypeJSON},
		{Name: "offers_clinic_service", Type: field.TypeBool, Default: false},
		{Name: "offers_home_service", Type: field.TypeBool, Default: false},
		{Name: "clinic_address", Type: field.TypeString, Nullable: true},
		{Name: "service_radius", Type: field.TypeFloat64, Nullable: true},
		{Name: "service_districts", Type: field.TypeJSON},
		{Name: "bank_name", Type: field.TypeString, Nullable: true},
		{Name: "account_number", Type: field.TypeString, Nullable: true},
		{Name: "account_name", Type: field.TypeString, Nullable: true},
		{Name: "is_license_verified", Type: field.TypeBool, Default: false},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
		{Name: "user_id", Type: field.TypeUUID, Unique: true},
	}
	PhysioProfilesTable = &schema.Table{
		Name:       "physio_profiles",
		Columns:    PhysioProfilesColumns,
		PrimaryKey: []*schema.Column{PhysioProfilesColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "physio_profiles_users_physio_profile",
				Columns:    []*schema.Column{PhysioProfilesColumns[14]},
				RefColumns: []*schema.Column{UsersColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
	}

	// PhysioServicesColumns holds the columns for the "physio_services" table.
	PhysioServicesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "name", Type: field.TypeString, Size: 200},
		{Name: "description", Type: field.TypeString, Nullable: true, Size: 2147483647},
		{Name: "duration", Type: field.TypeInt},
		{Name: "price", Type: field.TypeFloat64},
		{Name: "service_type", Type: field.TypeEnum, Enums: []string{"CLINIC", "HOME_VISIT", "BOTH"}},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "provider_id", Type: field.TypeUUID},
	}
	PhysioServicesTable = &schema.Table{
		Name:       "physio_services",
		Columns:    PhysioServicesColumns,
		PrimaryKey: []*schema.Column{PhysioServicesColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "physio_services_physio_profiles_services",
				Columns:    []*schema.Column{PhysioServicesColumns[7]},
				RefColumns: []*schema.Column{PhysioProfilesColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
	}

	// PatientProfilesColumns holds the columns for the "patient_profiles" table.
	PatientProfilesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "date_of_birth", Type: field.TypeTime, Nullable: true},
		{Name: "gender", Type: field.TypeString, Nullable: true, Size: 20},
		{Name: "address", Type: field.TypeString, Nullable: true},
		{Name: "emergency_contact_name", Type: field.TypeString, Nullable: true},
		{Name: "emergency_contact_phone", Type: field.TypeString, Nullable: true, Size: 20},
		{Name: "medical_history", Type: field.TypeString, Nullable: true, Size: 2147483647},
		{Name: "allergies", Type: field.TypeString, Nullable: true, Size: 2147483647},
		{Name: "current_medications", Type: field.TypeString, Nullable: true, Size: 2147483647},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
		{Name: "user_id", Type: field.TypeUUID, Unique: true},
	}
	PatientProfilesTable = &schema.Table{
		Name:       "patient_profiles",
		Columns:    PatientProfilesColumns,
		PrimaryKey: []*schema.Column{PatientProfilesColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "patient_profiles_users_patient_profile",
				Columns:    []*schema.Column{PatientProfilesColumns[11]},
				RefColumns: []*schema.Column{UsersColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
	}

	// ReferralsColumns holds the columns for the "referrals" table.
	ReferralsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "diagnosis", Type: field.TypeString, Size: 2147483647},
		{Name: "sessions", Type: field.TypeInt},
		{Name: "sessions_used", Type: field.TypeInt, Default: 0},
		{Name: "urgency", Type: field.TypeEnum, Enums: []string{"ROUTINE", "URGENT", "EMERGENCY"}, Default: "ROUTINE"},
		{Name: "service_type", Type: field.TypeEnum, Nullable: true, Enums: []string{"CLINIC", "HOME_VISIT"}},
		{Name: "notes", Type: field.TypeString, Nullable: true, Size: 2147483647},
		{Name: "issued_at", Type: field.TypeTime},
		{Name: "expiry_date", Type: field.TypeTime},
		{Name: "status", Type: field.TypeEnum, Enums: []string{"ACTIVE", "EXPIRED", "COMPLETED", "REVOKED"}, Default: "ACTIVE"},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
		{Name: "doctor_id", Type: field.TypeUUID},
		{Name: "patient_id", Type: field.TypeUUID},
		{Name: "physio_id", Type: field.TypeUUID},
	}
	ReferralsTable = &schema.Table{
		Name:       "referrals",
		Columns:    ReferralsColumns,
		PrimaryKey: []*schema.Column{ReferralsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "referrals_users_referrals_as_doctor",
				Columns:    []*schema.Column{ReferralsColumns[12]},
				RefColumns: []*schema.Column{UsersColumns[0]},
				OnDelete:   schema.NoAction,
			},
			{
				Symbol:     "referrals_users_referrals_as_patient",
				Columns:    []*schema.Column{ReferralsColumns[13]},
				RefColumns: []*schema.Column{UsersColumns[0]},
				OnDelete:   schema.NoAction,
			},
			{
				Symbol:     "referrals_users_referrals_as_physio",
				Columns:    []*schema.Column{ReferralsColumns[14]},
				RefColumns: []*schema.Column{UsersColumns[0]},
				OnDelete:   schema.NoAction,
			},
		},
		Indexes: []*schema.Index{
			{
				Name:    "referral_doctor_id_created_at",
				Unique:  false,
				Columns: []*schema.Column{ReferralsColumns[12], ReferralsColumns[10]},
			},
			{
				Name:    "referral_patient_id_created_at",
				Unique:  false,
				Columns: []*schema.Column{ReferralsColumns[13], ReferralsColumns[10]},
			},
			{
				Name:    "referral_status_expiry_date",
				Unique:  false,
				Columns: []*schema.Column{ReferralsColumns[9], ReferralsColumns[8]},
			},
		},
	}

	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{
		UsersTable,
		LicensesTable,
		DoctorProfilesTable,
		PhysioProfilesTable,
		PhysioServicesTable,
		PatientProfilesTable,
		ReferralsTable,
	}
)

func init() {
	LicensesTable.ForeignKeys[0].RefTable = UsersTable
	DoctorProfilesTable.ForeignKeys[0].RefTable = UsersTable
	PhysioProfilesTable.ForeignKeys[0].RefTable = UsersTable
	PhysioServicesTable.ForeignKeys[0].RefTable = PhysioProfilesTable
	PatientProfilesTable.ForeignKeys[0].RefTable = UsersTable
	ReferralsTable.ForeignKeys[0].RefTable = UsersTable
	ReferralsTable.ForeignKeys[1].RefTable = UsersTable
	ReferralsTable.ForeignKeys[2].RefTable = UsersTable
}
