// Package config loads presets and subscriptions from YAML.
//
// A preset file holds named presets:
//
//	presets:
//	  tv_show:
//	    source: youtube
//	    overrides:
//	      show_dir: "/tv/{subscription_name_sanitized}"
//	    output_options:
//	      output_directory: "{show_dir}"
//	      file_name: "{upload_date_standardized} - {title_sanitized}.{ext}"
//
// A subscription file maps subscription names to values, applying presets
// through group keys:
//
//	__preset__:
//	  overrides:
//	    tv_root: /media/tv
//
//	tv_show | = Documentaries:
//	  "Some Channel": "https://youtube.com/@channel"
//
// Every template is parsed while the file is loaded, so a subscription that
// loads without error can only fail to render because of its entries.
package config
